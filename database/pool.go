package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Pool hands out dedicated connections from the bounded database/sql pool.
type Pool struct {
	db             *gorm.DB
	sqlDB          *sql.DB
	acquireTimeout time.Duration
}

func NewPool(db *gorm.DB, acquireTimeout time.Duration) (*Pool, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &Pool{db: db, sqlDB: sqlDB, acquireTimeout: acquireTimeout}, nil
}

// Acquire waits up to the acquire timeout for a free connection. It blocks only
// the calling goroutine. A timeout is ErrPoolExhausted; a canceled ctx is
// returned as is; any other failure is ErrUnavailable.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.sqlDB.Conn(actx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrPoolExhausted
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	tx := p.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn
	return &Conn{conn: conn, db: tx}, nil
}

// Stats exposes the underlying pool statistics.
func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

// Conn is one connection checked out of the pool. Every query issued through DB
// runs on that connection until Release.
type Conn struct {
	conn *sql.Conn
	db   *gorm.DB
	once sync.Once
}

// DB returns a gorm handle bound to the connection and to the acquiring context.
func (c *Conn) DB() *gorm.DB {
	return c.db
}

// Release returns the connection to the pool. It is safe to call more than once.
func (c *Conn) Release() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
	})
	return err
}
