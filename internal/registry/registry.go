// Package registry is the persistence collaborator named in spec §6: a
// write-once-per-pool registry backed by GORM/MySQL, following the
// teacher's internal/db/transaction_recorder.go shape (a GORM model +
// table name + NewMySQLRecorder-style constructor) repurposed for pool
// metadata instead of asset-snapshot rows.
package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/7suyash7/arbengine"
	"github.com/7suyash7/arbengine/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolRegistry is the interface the engine consumes: write-once per pool
// (per spec §5's shared-state rule), with a Lookup/All read surface. A
// pool-discovery collaborator (out of scope per spec §1) is the only
// intended writer.
type PoolRegistry interface {
	Register(p pool.LiquidityPool) error
	Lookup(addr common.Address) (pool.LiquidityPool, bool)
	All() []pool.LiquidityPool
}

// PoolRecord is the GORM model for a registered pool. Curve's per-pool
// configuration (CurveAttributes) doesn't fit a handful of flat columns
// cleanly, so it's round-tripped through an opaque JSON blob, exactly as
// spec §6 describes ("an opaque attributes_json blob for Curve pools").
type PoolRecord struct {
	Address        string `gorm:"primaryKey;size:42"`
	DEX            string `gorm:"size:32;not null"`
	Family         int    `gorm:"not null"`
	Token0         string `gorm:"size:42"`
	Token1         string `gorm:"size:42"`
	FeeBps         uint64
	TickSpacing    int
	AttributesJSON string `gorm:"type:text"`
}

func (PoolRecord) TableName() string { return "pool_registry" }

// MySQLRegistry is a gorm+mysql-backed PoolRegistry. Reads are served from
// an in-memory index built at construction time and kept current by
// Register; this matches spec §5's "write-once per pool" guarantee without
// round-tripping through the database on every Lookup/All call during a
// tick.
type MySQLRegistry struct {
	db *gorm.DB

	mu    sync.RWMutex
	pools map[common.Address]pool.LiquidityPool
}

// NewMySQLRegistry dials dsn, auto-migrates the schema, and loads any
// previously-registered pools into the in-memory index.
func NewMySQLRegistry(dsn string) (*MySQLRegistry, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return newMySQLRegistry(db)
}

// NewMySQLRegistryWithDB wires a MySQLRegistry around an existing GORM
// handle, used by tests against sqlmock.
func NewMySQLRegistryWithDB(db *gorm.DB) (*MySQLRegistry, error) {
	return newMySQLRegistry(db)
}

func newMySQLRegistry(db *gorm.DB) (*MySQLRegistry, error) {
	if err := db.AutoMigrate(&PoolRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	r := &MySQLRegistry{db: db, pools: make(map[common.Address]pool.LiquidityPool)}

	var records []PoolRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load pool registry: %w", err)
	}
	for _, rec := range records {
		p, err := decodePool(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode pool %s: %w", rec.Address, err)
		}
		r.pools[p.Address()] = p
	}
	return r, nil
}

// Register persists a pool exactly once. Registering an already-registered
// address is a no-op success, matching "write-once per pool": the registry
// never overwrites a pool's recorded configuration.
func (r *MySQLRegistry) Register(p pool.LiquidityPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[p.Address()]; ok {
		return nil
	}

	rec, err := encodePool(p)
	if err != nil {
		return fmt.Errorf("failed to encode pool %s: %w", p.Address(), err)
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to persist pool %s: %w", p.Address(), err)
	}
	r.pools[p.Address()] = p
	return nil
}

func (r *MySQLRegistry) Lookup(addr common.Address) (pool.LiquidityPool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[addr]
	return p, ok
}

func (r *MySQLRegistry) All() []pool.LiquidityPool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pool.LiquidityPool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out
}

// curveAttributesJSON is the JSON-friendly mirror of pool.CurveAttributes:
// uint256 fields marshal as decimal strings rather than relying on
// uint256.Int's own (binary-oriented) JSON behavior.
type curveAttributesJSON struct {
	Variant              int      `json:"variant"`
	SwapStrategy         int      `json:"swap_strategy"`
	DVariant             int      `json:"d_variant"`
	YVariant             int      `json:"y_variant"`
	NCoins               int      `json:"n_coins"`
	PrecisionMultipliers []string `json:"precision_multipliers"`
	UseLending           []bool   `json:"use_lending"`
	FeeGamma             string   `json:"fee_gamma,omitempty"`
	MidFee               string   `json:"mid_fee,omitempty"`
	OutFee               string   `json:"out_fee,omitempty"`
	OffpegFeeMultiplier  string   `json:"offpeg_fee_multiplier,omitempty"`
	BasePoolAddress      string   `json:"base_pool_address,omitempty"`
	OracleMethod         uint8    `json:"oracle_method"`
	LPToken              string   `json:"lp_token"`
}

func encodePool(p pool.LiquidityPool) (PoolRecord, error) {
	rec := PoolRecord{
		Address: p.Address().Hex(),
		Family:  int(p.Family()),
	}

	switch pp := p.(type) {
	case *pool.V2Pool:
		rec.DEX = "uniswap-v2"
		rec.Token0 = pp.Token0.Address.Hex()
		rec.Token1 = pp.Token1.Address.Hex()
		rec.FeeBps = pp.FeeBps
	case *pool.V3Pool:
		rec.DEX = "uniswap-v3"
		rec.Token0 = pp.Token0.Address.Hex()
		rec.Token1 = pp.Token1.Address.Hex()
		rec.FeeBps = uint64(pp.FeePips)
		rec.TickSpacing = pp.TickSpacing
	case *pool.CurvePool:
		rec.DEX = "curve"
		blob, err := json.Marshal(toCurveJSON(pp))
		if err != nil {
			return PoolRecord{}, err
		}
		rec.AttributesJSON = string(blob)
	case *pool.BalancerPool:
		rec.DEX = "balancer-weighted"
		rec.FeeBps = 0
	default:
		return PoolRecord{}, arbengine.ArithmeticFailure("unknown pool family for registry encoding")
	}
	return rec, nil
}

func toCurveJSON(p *pool.CurvePool) curveAttributesJSON {
	pm := make([]string, len(p.Attributes.PrecisionMultipliers))
	for i, v := range p.Attributes.PrecisionMultipliers {
		pm[i] = v.Dec()
	}
	out := curveAttributesJSON{
		Variant:              int(p.Attributes.Variant),
		SwapStrategy:         int(p.Attributes.SwapStrategy),
		DVariant:             int(p.Attributes.DVariant),
		YVariant:             int(p.Attributes.YVariant),
		NCoins:               p.Attributes.NCoins,
		PrecisionMultipliers: pm,
		UseLending:           p.Attributes.UseLending,
		OracleMethod:         p.Attributes.OracleMethod,
		LPToken:              p.LPToken.Hex(),
	}
	if p.Attributes.FeeGamma != nil {
		out.FeeGamma = p.Attributes.FeeGamma.Dec()
	}
	if p.Attributes.MidFee != nil {
		out.MidFee = p.Attributes.MidFee.Dec()
	}
	if p.Attributes.OutFee != nil {
		out.OutFee = p.Attributes.OutFee.Dec()
	}
	if p.Attributes.OffpegFeeMultiplier != nil {
		out.OffpegFeeMultiplier = p.Attributes.OffpegFeeMultiplier.Dec()
	}
	if p.Attributes.BasePoolAddress != (common.Address{}) {
		out.BasePoolAddress = p.Attributes.BasePoolAddress.Hex()
	}
	return out
}

// decodePool reconstructs a pool.LiquidityPool from its persisted record.
// V2 and V3 pools get back their two token addresses, with Symbol and
// Decimals left empty. Curve pools get back their attributes and LP token
// from the JSON blob, but no token list. Balancer pools get back only their
// address; tokens, weights, fee, vault and pool id are not persisted.
func decodePool(rec PoolRecord) (pool.LiquidityPool, error) {
	addr := common.HexToAddress(rec.Address)
	switch pool.Family(rec.Family) {
	case pool.FamilyV2:
		return &pool.V2Pool{
			Addr:   addr,
			Token0: arbengine.Token{Address: common.HexToAddress(rec.Token0)},
			Token1: arbengine.Token{Address: common.HexToAddress(rec.Token1)},
			FeeBps: rec.FeeBps,
		}, nil
	case pool.FamilyV3:
		return &pool.V3Pool{
			Addr:        addr,
			Token0:      arbengine.Token{Address: common.HexToAddress(rec.Token0)},
			Token1:      arbengine.Token{Address: common.HexToAddress(rec.Token1)},
			FeePips:     uint32(rec.FeeBps),
			TickSpacing: rec.TickSpacing,
		}, nil
	case pool.FamilyCurve:
		var cj curveAttributesJSON
		if err := json.Unmarshal([]byte(rec.AttributesJSON), &cj); err != nil {
			return nil, fmt.Errorf("decode curve attributes: %w", err)
		}
		attrs := pool.CurveAttributes{
			Variant:      pool.CurveVariant(cj.Variant),
			SwapStrategy: pool.SwapStrategy(cj.SwapStrategy),
			DVariant:     pool.CurveYVariantGroup(cj.DVariant),
			YVariant:     pool.CurveYVariantGroup(cj.YVariant),
			NCoins:       cj.NCoins,
			UseLending:   cj.UseLending,
			OracleMethod: cj.OracleMethod,
		}
		attrs.PrecisionMultipliers = make([]*uint256.Int, len(cj.PrecisionMultipliers))
		for i, s := range cj.PrecisionMultipliers {
			v, err := parseDec(s)
			if err != nil {
				return nil, err
			}
			attrs.PrecisionMultipliers[i] = v
		}
		var err error
		if attrs.FeeGamma, err = parseOptionalDec(cj.FeeGamma); err != nil {
			return nil, err
		}
		if attrs.MidFee, err = parseOptionalDec(cj.MidFee); err != nil {
			return nil, err
		}
		if attrs.OutFee, err = parseOptionalDec(cj.OutFee); err != nil {
			return nil, err
		}
		if attrs.OffpegFeeMultiplier, err = parseOptionalDec(cj.OffpegFeeMultiplier); err != nil {
			return nil, err
		}
		if cj.BasePoolAddress != "" {
			attrs.BasePoolAddress = common.HexToAddress(cj.BasePoolAddress)
		}
		return &pool.CurvePool{
			Addr:       addr,
			LPToken:    common.HexToAddress(cj.LPToken),
			Attributes: attrs,
		}, nil
	case pool.FamilyBalancer:
		return &pool.BalancerPool{Addr: addr}, nil
	default:
		return nil, fmt.Errorf("unknown pool family %d for %s", rec.Family, rec.Address)
	}
}

func parseDec(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return v, nil
}

func parseOptionalDec(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseDec(s)
}
