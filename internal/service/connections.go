package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/ws"
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// connections holds the sockets watching one game, keyed by player id.
// Writes happen under mu so a connection never has two writers.
type connections struct {
	mu     sync.Mutex
	conns  map[string]Conn
	seq    uint64 // sequence of the last state written
	logger *zap.Logger
}

func newConnections(logger *zap.Logger) *connections {
	return &connections{
		conns:  make(map[string]Conn),
		logger: logger,
	}
}

// add registers conn for playerID. An older connection for the same
// player is closed and replaced.
func (c *connections) add(playerID string, conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.conns[playerID]; ok && old != conn {
		c.logger.Debug("replacing connection", zap.String("player", playerID))
		old.Close()
	}
	c.conns[playerID] = conn
}

// remove only drops conn if it is still the current one for playerID.
func (c *connections) remove(playerID string, conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.conns[playerID]; ok && current == conn {
		delete(c.conns, playerID)
	}
}

func (c *connections) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// broadcast writes a state message to every connection. States older than
// the last one written are dropped.
func (c *connections) broadcast(seq uint64, msg ws.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.seq {
		return
	}
	c.seq = seq
	for playerID, conn := range c.conns {
		c.writeLocked(playerID, conn, msg)
	}
}

// deliver writes a state message to one player unless a newer state has
// already gone out.
func (c *connections) deliver(playerID string, seq uint64, msg ws.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.seq {
		return
	}
	if conn, ok := c.conns[playerID]; ok {
		c.writeLocked(playerID, conn, msg)
	}
}

// send writes a message to one player, ignoring sequencing.
func (c *connections) send(playerID string, msg ws.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[playerID]; ok {
		c.writeLocked(playerID, conn, msg)
	}
}

func (c *connections) writeLocked(playerID string, conn Conn, msg ws.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		c.logger.Debug("dropping connection after failed write", zap.String("player", playerID), zap.Error(err))
		delete(c.conns, playerID)
		conn.Close()
	}
}

func (c *connections) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for playerID, conn := range c.conns {
		conn.Close()
		delete(c.conns, playerID)
	}
}
