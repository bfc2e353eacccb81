package kafka

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"MedMemory/backend/go/internal/config"

	"github.com/segmentio/kafka-go"
)

// KafkaClient 持有陈述主题的 reader、决策主题的 writer 以及一个管理连接。
type KafkaClient struct {
	Writer *kafka.Writer
	Reader *kafka.Reader
	Conn   *kafka.Conn // 用于管理的连接
	Config *config.KafkaConfig
}

var (
	client  *KafkaClient
	once    sync.Once
	initErr error
)

// GetClient 使用单例模式初始化并返回一个 KafkaClient 实例。
// 首次调用时，它会连接到 Kafka 并自动创建陈述主题与决策主题。
func GetClient(cfg *config.KafkaConfig) (*KafkaClient, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("未配置 Kafka brokers")
			return
		}
		topics := cfg.Topics()
		if len(topics) == 0 {
			initErr = fmt.Errorf("未配置 Kafka topics")
			return
		}

		conn, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("kafka 初始化连接失败: %w", err)
			return
		}
		if err := ensureTopics(conn, topics); err != nil {
			conn.Close()
			initErr = err
			return
		}

		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DecisionTopic,
			Balancer:     &kafka.Hash{}, // 同一受试者的决策落在同一分区
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		}

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       cfg.StatementTopic,
			MinBytes:    10e3, // 10KB
			MaxBytes:    10e6, // 10MB
			MaxAttempts: 10,
			Dialer: &kafka.Dialer{
				Timeout: 10 * time.Second,
			},
		})

		log.Println("✅ 成功初始化 Kafka 客户端!")
		client = &KafkaClient{Writer: writer, Reader: reader, Conn: conn, Config: cfg}
	})

	return client, initErr
}

// ensureTopics 创建尚不存在的主题。
func ensureTopics(conn *kafka.Conn, topics []string) error {
	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	existing := make(map[string]struct{})
	for _, p := range partitions {
		existing[p.Topic] = struct{}{}
	}

	var toCreate []kafka.TopicConfig
	for _, name := range topics {
		if _, ok := existing[name]; !ok {
			log.Printf("主题 '%s' 不存在，准备创建...", name)
			toCreate = append(toCreate, kafka.TopicConfig{
				Topic:             name,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
		}
	}
	if len(toCreate) == 0 {
		return nil
	}
	if err := conn.CreateTopics(toCreate...); err != nil {
		return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
	}
	log.Printf("成功创建 %d 个 Kafka 主题。", len(toCreate))
	return nil
}

// Close 安全地关闭单例的 Kafka 连接。
func (c *KafkaClient) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka writer 失败: %w", err))
		}
	}
	if c.Reader != nil {
		if err := c.Reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka reader 失败: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka 管理连接失败: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("关闭 Kafka 客户端时发生多个错误: %v", errs)
	}
	return nil
}

// HealthCheck 检查 Kafka 连接的健康状况。
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka 客户端未初始化，无法进行健康检查")
	}
	_, err := c.Conn.Controller()
	return err
}

// ControllerAddress 返回 Kafka 控制器的地址。
func (c *KafkaClient) ControllerAddress() (string, error) {
	if c == nil || c.Conn == nil {
		return "", fmt.Errorf("kafka 客户端未初始化")
	}
	controller, err := c.Conn.Controller()
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)), nil
}
