package neo4j

import (
	"context"
	"fmt"
	"log"
	"sync"

	"MedMemory/backend/go/internal/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	instance *Neo4jClient
	once     sync.Once
	initErr  error
)

// schemaStatements 为图投影创建唯一约束，重复执行是安全的。
var schemaStatements = []string{
	"CREATE CONSTRAINT subject_id IF NOT EXISTS FOR (s:Subject) REQUIRE s.id IS UNIQUE",
	"CREATE CONSTRAINT medication_lineage IF NOT EXISTS FOR (m:Medication) REQUIRE m.lineage_id IS UNIQUE",
	"CREATE CONSTRAINT symptom_lineage IF NOT EXISTS FOR (s:Symptom) REQUIRE s.lineage_id IS UNIQUE",
}

// Neo4jClient 包含了 Neo4j 驱动实例和从 YAML 加载的相关配置。
type Neo4jClient struct {
	Driver neo4j.DriverWithContext // Neo4j 驱动实例。
	Config *config.Neo4jConfig     // Neo4j 配置。
}

// GetClient 使用单例模式创建并返回一个新的 Neo4j 驱动实例，并确保约束存在。
func GetClient(ctx context.Context, cfg *config.Neo4jConfig) (*Neo4jClient, error) {
	once.Do(func() {
		auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")

		driver, err := neo4j.NewDriverWithContext(cfg.Uri, auth)
		if err != nil {
			initErr = fmt.Errorf("无法创建 Neo4j 驱动: %w", err)
			return
		}

		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx) // 如果验证失败，需要关闭已创建的驱动以释放资源。
			initErr = fmt.Errorf("无法连接到 Neo4j 数据库: %w", err)
			return
		}

		c := &Neo4jClient{Driver: driver, Config: cfg}
		if err := c.ensureSchema(ctx); err != nil {
			driver.Close(ctx)
			initErr = err
			return
		}

		log.Println("✅ 成功连接到 Neo4j!")
		instance = c
	})
	return instance, initErr
}

func (c *Neo4jClient) ensureSchema(ctx context.Context) error {
	_, err := c.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, stmt := range schemaStatements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("创建 Neo4j 约束失败: %w", err)
	}
	return nil
}

// Close 安全地关闭与 Neo4j 的连接。
func (c *Neo4jClient) Close(ctx context.Context) {
	if c.Driver != nil {
		if err := c.Driver.Close(ctx); err != nil {
			log.Printf("关闭 Neo4j 驱动失败: %v", err)
		}
	}
}

// HealthCheck 检查 Neo4j 连接的健康状况。
func (c *Neo4jClient) HealthCheck(ctx context.Context) error {
	return c.Driver.VerifyConnectivity(ctx)
}

// ExecuteWrite 在一个自动管理的写事务中执行 Cypher 查询。
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.Config.Database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("执行 Neo4j 写事务失败: %w", err)
	}
	return result, nil
}

// ExecuteRead 在一个自动管理的读事务中执行 Cypher 查询。
func (c *Neo4jClient) ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.Config.Database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("执行 Neo4j 读事务失败: %w", err)
	}
	return result, nil
}
