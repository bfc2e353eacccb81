package mongo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"MedMemory/backend/go/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const appName = "memory_service"

var (
	client  *mongo.Client
	once    sync.Once
	initErr error
)

// clientOptions 构造审计库的连接选项。审计记录写入多数节点后才算成功，
// 认证库默认为配置的数据库。
func clientOptions(cfg *config.MongoConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.Address).
		SetAppName(appName).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.Database,
		})
	}
	return opts
}

// auditIndexes 覆盖按主体倒序查询决策和按陈述查找两种访问路径。
func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}, {Key: "decided_at", Value: -1}},
			Options: options.Index().SetName("subject_decided_at"),
		},
		{
			Keys:    bson.D{{Key: "statement_id", Value: 1}},
			Options: options.Index().SetName("statement_id"),
		},
	}
}

// GetClient 初始化并返回审计使用的 MongoDB 客户端（单例）。
func GetClient(cfg *config.MongoConfig) (*mongo.Client, error) {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, clientOptions(cfg))
		if err != nil {
			initErr = fmt.Errorf("无法连接到 MongoDB: %w", err)
			return
		}
		if err = c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(ctx)
			initErr = fmt.Errorf("无法 Ping MongoDB: %w", err)
			return
		}

		log.Printf("已连接 MongoDB, 审计集合 %s.%s", cfg.Database, cfg.Collection)
		client = c
	})

	return client, initErr
}

// GetCollection 返回审计集合，并确保查询所需的索引存在。
func GetCollection(cfg *config.MongoConfig) (*mongo.Collection, error) {
	c, err := GetClient(cfg)
	if err != nil {
		return nil, err
	}
	coll := c.Database(cfg.Database).Collection(cfg.Collection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := coll.Indexes().CreateMany(ctx, auditIndexes()); err != nil {
		return nil, fmt.Errorf("创建审计索引失败: %w", err)
	}
	return coll, nil
}

// Close 断开单例连接。
func Close(ctx context.Context) error {
	if client != nil {
		return client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck 确认主节点可达，审计写入依赖主节点。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MongoDB 客户端未初始化")
	}
	return client.Ping(ctx, readpref.Primary())
}
