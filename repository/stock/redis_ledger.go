package stock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/muhammadheryan/stock-reservation/model"
	"github.com/muhammadheryan/stock-reservation/utils/errors"
	"github.com/redis/go-redis/v9"
)

// Script result codes (first element of the returned array).
const (
	scriptNotFound  = -1
	scriptGuardFail = 0
	scriptOK        = 1
)

// Every script works on a single hash so the check and the write happen inside one
// Redis command. The product id is the hash tag, keeping a product's keys on one slot.
//
// KEYS[1]: stock hash, ARGV[1]: quantity, ARGV[2]: updated_at (unix millis)
// Returns {code, available, reserved, total}.
var (
	reserveScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then return {-1} end
local qty = tonumber(ARGV[1])
local available = tonumber(redis.call('hget', KEYS[1], 'available'))
if available < qty then return {0} end
local a = redis.call('hincrby', KEYS[1], 'available', -qty)
local r = redis.call('hincrby', KEYS[1], 'reserved', qty)
redis.call('hset', KEYS[1], 'updated_at', ARGV[2])
return {1, a, r, tonumber(redis.call('hget', KEYS[1], 'total'))}
`)

	commitScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then return {-1} end
local qty = tonumber(ARGV[1])
local reserved = tonumber(redis.call('hget', KEYS[1], 'reserved'))
if reserved < qty then return {0} end
local r = redis.call('hincrby', KEYS[1], 'reserved', -qty)
local t = redis.call('hincrby', KEYS[1], 'total', -qty)
redis.call('hset', KEYS[1], 'updated_at', ARGV[2])
return {1, tonumber(redis.call('hget', KEYS[1], 'available')), r, t}
`)

	releaseScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then return {-1} end
local qty = tonumber(ARGV[1])
local reserved = tonumber(redis.call('hget', KEYS[1], 'reserved'))
if reserved < qty then return {0} end
local r = redis.call('hincrby', KEYS[1], 'reserved', -qty)
local a = redis.call('hincrby', KEYS[1], 'available', qty)
redis.call('hset', KEYS[1], 'updated_at', ARGV[2])
return {1, a, r, tonumber(redis.call('hget', KEYS[1], 'total'))}
`)

	// KEYS[2]: product warehouse index set, ARGV[3]: product id, ARGV[4]: warehouse id
	receiveScript = redis.NewScript(`
local qty = tonumber(ARGV[1])
redis.call('hsetnx', KEYS[1], 'reserved', 0)
redis.call('hset', KEYS[1], 'product_id', ARGV[3], 'warehouse_id', ARGV[4], 'updated_at', ARGV[2])
local a = redis.call('hincrby', KEYS[1], 'available', qty)
local t = redis.call('hincrby', KEYS[1], 'total', qty)
redis.call('sadd', KEYS[2], ARGV[4])
return {1, a, tonumber(redis.call('hget', KEYS[1], 'reserved')), t}
`)
)

// Redis is a StockLedger kept in Redis hashes and mutated only through Lua scripts.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLedger(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func stockHashKey(productID, warehouseID string) string {
	return fmt.Sprintf("stock:{%s}:%s", productID, warehouseID)
}

func productIndexKey(productID string) string {
	return fmt.Sprintf("stock:{%s}:warehouses", productID)
}

func warehouseIndexKey(warehouseID string) string {
	return fmt.Sprintf("stock:warehouse:%s:products", warehouseID)
}

func (r *Redis) run(ctx context.Context, script *redis.Script, guardErr constant.ErrorType, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	now := r.now().UTC()
	res, err := script.Run(ctx, r.client, []string{stockHashKey(productID, warehouseID)}, qty, now.UnixMilli()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run ledger script: %w", err)
	}
	return decodeScriptResult(res, guardErr, productID, warehouseID, now)
}

func decodeScriptResult(res []int64, guardErr constant.ErrorType, productID, warehouseID string, now time.Time) (*model.StockRecord, error) {
	if len(res) == 0 {
		return nil, fmt.Errorf("empty ledger script result")
	}
	switch res[0] {
	case scriptNotFound:
		return nil, errors.SetCustomError(constant.ErrProductNotStocked)
	case scriptGuardFail:
		return nil, errors.SetCustomError(guardErr)
	case scriptOK:
		if len(res) != 4 {
			return nil, fmt.Errorf("unexpected ledger script result length %d", len(res))
		}
		return &model.StockRecord{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Available:   res[1],
			Reserved:    res[2],
			Total:       res[3],
			UpdatedAt:   now,
		}, nil
	default:
		return nil, fmt.Errorf("unknown ledger script code %d", res[0])
	}
}

func (r *Redis) Reserve(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.run(ctx, reserveScript, constant.ErrInsufficientStock, productID, warehouseID, qty)
}

func (r *Redis) Commit(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.run(ctx, commitScript, constant.ErrInvalidState, productID, warehouseID, qty)
}

func (r *Redis) Release(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	return r.run(ctx, releaseScript, constant.ErrInvalidState, productID, warehouseID, qty)
}

func (r *Redis) Receive(ctx context.Context, productID, warehouseID string, qty int64) (*model.StockRecord, error) {
	if qty <= 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	now := r.now().UTC()
	keys := []string{stockHashKey(productID, warehouseID), productIndexKey(productID)}
	res, err := receiveScript.Run(ctx, r.client, keys, qty, now.UnixMilli(), productID, warehouseID).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run receive script: %w", err)
	}
	// The warehouse index lives outside the product slot, so it is maintained separately.
	if err := r.client.SAdd(ctx, warehouseIndexKey(warehouseID), productID).Err(); err != nil {
		return nil, fmt.Errorf("index warehouse product: %w", err)
	}
	return decodeScriptResult(res, constant.ErrInternal, productID, warehouseID, now)
}

func (r *Redis) Get(ctx context.Context, productID, warehouseID string) (*model.StockRecord, error) {
	fields, err := r.client.HGetAll(ctx, stockHashKey(productID, warehouseID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall stock: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseStockHash(productID, warehouseID, fields)
}

func (r *Redis) ListByProduct(ctx context.Context, productID string) ([]model.StockRecord, error) {
	warehouses, err := r.client.SMembers(ctx, productIndexKey(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers product index: %w", err)
	}
	sort.Strings(warehouses)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(warehouses))
	for i, w := range warehouses {
		cmds[i] = pipe.HGetAll(ctx, stockHashKey(productID, w))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("pipeline hgetall: %w", err)
		}
	}

	recs := make([]model.StockRecord, 0, len(cmds))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		rec, err := parseStockHash(productID, warehouses[i], fields)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func (r *Redis) ReservedByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	products, err := r.client.SMembers(ctx, warehouseIndexKey(warehouseID)).Result()
	if err != nil {
		return 0, fmt.Errorf("smembers warehouse index: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(products))
	for i, p := range products {
		cmds[i] = pipe.HGet(ctx, stockHashKey(p, warehouseID), "reserved")
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return 0, fmt.Errorf("pipeline hget reserved: %w", err)
		}
	}

	var total int64
	for _, cmd := range cmds {
		n, err := cmd.Int64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("parse reserved: %w", err)
		}
		total += n
	}
	return total, nil
}

func parseStockHash(productID, warehouseID string, fields map[string]string) (*model.StockRecord, error) {
	rec := &model.StockRecord{ProductID: productID, WarehouseID: warehouseID}
	for name, dst := range map[string]*int64{"available": &rec.Available, "reserved": &rec.Reserved, "total": &rec.Total} {
		n, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s for %s/%s: %w", name, productID, warehouseID, err)
		}
		*dst = n
	}
	if ms, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		rec.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	return rec, nil
}
