package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	listCacheTTL       = 2 * time.Minute
	listVersionKey     = "articles:list:version"
	titleMaxRunes      = 1000
	sourceDomainMaxLen = 128
	categoryMaxLen     = 64
)

// ErrNotConfigured Store 未初始化
var ErrNotConfigured = errors.New("store is not configured")

// Article 对应 articles 表，title 唯一；本服务只追加，不更新不删除。
// 结论字段不设数据库默认值：gorm 会把零值替换成默认值，0 分的可信度会被写成默认分
type Article struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	Title            string            `gorm:"size:1024;not null;uniqueIndex" json:"title"`
	SourceDomain     string            `gorm:"size:128;index" json:"source_domain"`
	SourceURL        string            `gorm:"size:2048" json:"source_url"`
	ContentSummary   string            `gorm:"type:text;not null" json:"content_summary"`
	Category         string            `gorm:"size:64;index;default:general" json:"category"`
	PublishedAt      string            `gorm:"size:64" json:"published_at"`
	Sentiment        string            `gorm:"size:16;index;not null" json:"sentiment"`
	IsFake           bool              `gorm:"index;not null" json:"is_fake"`
	CredibilityScore float64           `gorm:"not null" json:"credibility_score"`
	AIReasoning      string            `gorm:"type:text" json:"ai_reasoning"`
	Signals          datatypes.JSONMap `gorm:"type:jsonb" json:"signals,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&Article{}); err != nil {
		return nil, fmt.Errorf("migrate articles: %w", err)
	}

	s := &Store{DB: db}
	if redisAddr == "" {
		return s, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}
	s.Redis = rdb

	return s, nil
}

// Close 释放数据库与 Redis 连接
func (s *Store) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// sanitize 入库前统一做编码与长度保护
func sanitize(a *Article) {
	a.Title = truncateRunesDB(toValidUTF8(a.Title), titleMaxRunes)
	a.SourceDomain = truncateRunesDB(toValidUTF8(a.SourceDomain), sourceDomainMaxLen)
	a.SourceURL = truncateRunesDB(toValidUTF8(a.SourceURL), 2048)
	a.ContentSummary = toValidUTF8(a.ContentSummary)
	a.Category = truncateRunesDB(toValidUTF8(a.Category), categoryMaxLen)
	a.PublishedAt = truncateRunesDB(toValidUTF8(a.PublishedAt), 64)
	a.AIReasoning = toValidUTF8(a.AIReasoning)
}

// ExistsByTitle 按标题精确匹配判断是否已入库
func (s *Store) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, ErrNotConfigured
	}
	title = truncateRunesDB(toValidUTF8(title), titleMaxRunes)

	var n int64
	err := s.DB.WithContext(ctx).Model(&Article{}).Where("title = ?", title).Limit(1).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("exists by title: %w", err)
	}
	return n > 0, nil
}

// InsertArticle 以 title 作为幂等键插入；已存在时返回 false，不覆盖旧记录
func (s *Store) InsertArticle(ctx context.Context, a *Article) (bool, error) {
	if s == nil || s.DB == nil {
		return false, ErrNotConfigured
	}
	sanitize(a)

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "title"}}, DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, fmt.Errorf("insert article: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	s.bumpListVersion(ctx)
	return true, nil
}

// normalizePage 规范分页参数
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func listCacheKey(version int64, limit, offset int) string {
	return fmt.Sprintf("articles:list:v%d:%d:%d", version, limit, offset)
}

// ListArticles 按入库时间倒序分页返回文章，并使用 Redis 做简单缓存
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]Article, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotConfigured
	}
	limit, offset = normalizePage(limit, offset)

	cacheKey := ""
	if s.Redis != nil {
		version, err := s.Redis.Get(ctx, listVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("storage: redis get version: %v", err)
		} else {
			cacheKey = listCacheKey(version, limit, offset)
			if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
				var cached []Article
				if err := json.Unmarshal(bs, &cached); err == nil {
					return cached, nil
				}
			}
		}
	}

	var list []Article
	err := s.DB.WithContext(ctx).Model(&Article{}).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	if cacheKey != "" && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

// bumpListVersion 新增文章后让列表缓存整体失效，旧 key 依赖 TTL 自然过期
func (s *Store) bumpListVersion(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Incr(ctx, listVersionKey).Err(); err != nil {
		log.Printf("storage: redis bump list version: %v", err)
	}
}
