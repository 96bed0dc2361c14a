// Package session 提供会话生命周期管理
// 身份记录在 POST /session 时写入，会话状态在首条聊天消息时惰性物化；
// 状态以内存为主，可选镜像到 Redis
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ashwinyue/kitbot/internal/service/agent"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// 会话状态在 Redis 中的过期时间（24小时）
	stateTTL = 24 * time.Hour
	// Redis key 前缀
	stateKeyPrefix = "session:state:"
)

// ErrSessionNotFound 会话不存在
// 直接上报给传输层，绝不静默创建会话
var ErrSessionNotFound = errors.New("session not found")

// Identity 会话身份记录
// 创建会话时提交的身份与画像字段，仅用于首次物化会话状态
type Identity struct {
	AuthToken   string `json:"auth_token"`
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	CompanyID   int    `json:"company_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
}

// Manager 会话管理器
// 每个会话标识恰好拥有一份状态；同一会话的轮次通过 turnLocks 串行化，
// 避免并发轮次交错追加消息
type Manager struct {
	mu         sync.RWMutex
	identities map[string]*Identity
	states     map[string]*agent.State
	turnLocks  map[string]*sync.Mutex
	redis      *redis.Client
}

// NewManager 创建会话管理器
// redisClient 为 nil 时为纯内存模式
func NewManager(redisClient *redis.Client) *Manager {
	return &Manager{
		identities: make(map[string]*Identity),
		states:     make(map[string]*agent.State),
		turnLocks:  make(map[string]*sync.Mutex),
		redis:      redisClient,
	}
}

// Create 创建会话，返回会话标识
// 只登记身份记录，不创建会话状态
func (m *Manager) Create(identity *Identity) string {
	sessionID := uuid.New().String()

	m.mu.Lock()
	m.identities[sessionID] = identity
	m.mu.Unlock()

	return sessionID
}

// Snapshot 返回已物化会话状态的副本
// 状态尚未物化（从未发过聊天消息）时返回 ErrSessionNotFound
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*agent.State, error) {
	m.mu.RLock()
	st, ok := m.states[sessionID]
	m.mu.RUnlock()

	if ok {
		return st.Clone(), nil
	}

	if st := m.loadFromRedis(ctx, sessionID); st != nil {
		m.mu.Lock()
		m.states[sessionID] = st
		m.mu.Unlock()
		return st.Clone(), nil
	}

	return nil, ErrSessionNotFound
}

// StateForTurn 返回用于执行轮次的状态副本，必要时从身份记录惰性物化
// 会话标识未知（无身份记录也无状态）时返回 ErrSessionNotFound
func (m *Manager) StateForTurn(ctx context.Context, sessionID string) (*agent.State, error) {
	if st, err := m.Snapshot(ctx, sessionID); err == nil {
		return st, nil
	}

	m.mu.Lock()
	identity, ok := m.identities[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	st := materialize(identity)
	m.states[sessionID] = st
	m.mu.Unlock()

	m.saveToRedis(ctx, sessionID, st)
	return st.Clone(), nil
}

// Replace 写回会话状态
// 轮次成功结束后由调用方提交最终状态
func (m *Manager) Replace(ctx context.Context, sessionID string, st *agent.State) {
	m.mu.Lock()
	m.states[sessionID] = st
	m.mu.Unlock()

	m.saveToRedis(ctx, sessionID, st)
}

// LockTurn 获取会话的轮次互斥锁，返回解锁函数
// 同一会话同时只允许一个轮次在执行
func (m *Manager) LockTurn(sessionID string) func() {
	m.mu.Lock()
	lock, ok := m.turnLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.turnLocks[sessionID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Exists 会话标识是否已知（已创建或已物化）
func (m *Manager) Exists(ctx context.Context, sessionID string) bool {
	m.mu.RLock()
	_, hasIdentity := m.identities[sessionID]
	_, hasState := m.states[sessionID]
	m.mu.RUnlock()

	if hasIdentity || hasState {
		return true
	}
	return m.loadFromRedis(ctx, sessionID) != nil
}

// materialize 从身份记录构建初始会话状态
func materialize(identity *Identity) *agent.State {
	return &agent.State{
		Messages:       []*schema.Message{},
		AuthToken:      identity.AuthToken,
		UserID:         identity.UserID,
		CompanyID:      identity.CompanyID,
		Email:          identity.Email,
		FirstName:      identity.FirstName,
		LastName:       identity.LastName,
		FullName:       identity.FullName,
		CompanyName:    identity.CompanyName,
		Init:           true,
		WelcomeMessage: false,
	}
}

// loadFromRedis 从 Redis 加载会话状态
func (m *Manager) loadFromRedis(ctx context.Context, sessionID string) *agent.State {
	if m.redis == nil {
		return nil
	}

	data, err := m.redis.Get(ctx, stateKeyPrefix+sessionID).Result()
	if err != nil {
		return nil
	}

	var st agent.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil
	}
	return &st
}

// saveToRedis 保存会话状态到 Redis
func (m *Manager) saveToRedis(ctx context.Context, sessionID string, st *agent.State) {
	if m.redis == nil {
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("Warning: failed to marshal session state: %v", err)
		return
	}

	if err := m.redis.Set(ctx, stateKeyPrefix+sessionID, data, stateTTL).Err(); err != nil {
		// 记录错误但不影响主流程
		log.Printf("Warning: failed to save session state to redis: %v", err)
	}
}
