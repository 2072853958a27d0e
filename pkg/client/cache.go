// Package client はAPIサーバーへのGoクライアントSDKを提供する。
// 読み取り系リソースのTTLキャッシュと、変更操作後の即時無効化を実装する。
package client

import (
	"sync"
	"time"
)

// ResourceKind はキャッシュ対象の論理リソース種別を表す。
type ResourceKind string

const (
	// KindProfile はユーザープロフィールのキャッシュキー。
	KindProfile ResourceKind = "profile"
	// KindStats は進捗統計のキャッシュキー。
	KindStats ResourceKind = "stats"
	// KindCompletedLessons は完了済みレッスン一覧のキャッシュキー。
	KindCompletedLessons ResourceKind = "completed_lessons"
)

// resourceTTLs はリソース種別ごとの固定TTL。呼び出しごとの変更はできない。
var resourceTTLs = map[ResourceKind]time.Duration{
	KindProfile:          5 * time.Minute,
	KindStats:            3 * time.Minute,
	KindCompletedLessons: 5 * time.Minute,
}

// cacheEntry はキャッシュされた値と格納時刻を保持する。
type cacheEntry struct {
	data     any
	storedAt time.Time
}

// Cache はリソース種別ごとのTTLキャッシュ。
// 並行アクセスに対して安全。時刻はコンストラクタで注入されたクロックから取得する。
type Cache struct {
	mu      sync.Mutex
	entries map[ResourceKind]cacheEntry
	now     func() time.Time
}

// NewCache は新しいCacheを生成する。
// nowには通常time.Nowを渡す。テストでは固定クロックを注入する。
func NewCache(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[ResourceKind]cacheEntry),
		now:     now,
	}
}

// Get はキャッシュされた値を返す。
// エントリが存在しない、またはTTLを超過している場合はfalseを返す。
func (c *Cache) Get(kind ResourceKind) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[kind]
	if !ok {
		return nil, false
	}

	ttl, ok := resourceTTLs[kind]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) >= ttl {
		delete(c.entries, kind)
		return nil, false
	}

	return entry.data, true
}

// Set は値をキャッシュに格納する。格納時刻には現在時刻を使用する。
func (c *Cache) Set(kind ResourceKind, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[kind] = cacheEntry{
		data:     data,
		storedAt: c.now(),
	}
}

// Invalidate は指定リソース種別のキャッシュエントリを削除する。
// 変更操作の成功直後に呼び出し、TTL内の古い値が返らないようにする。
func (c *Cache) Invalidate(kind ResourceKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, kind)
}

// InvalidateAll は全リソース種別のキャッシュエントリを削除する。
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[ResourceKind]cacheEntry)
}
