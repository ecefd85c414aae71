// Package statusapi 只读状态接口：健康检查、调度器状态与订单簿快照。
package statusapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/internal/marketstate"
	"github.com/betbot/polyclob/internal/metrics"
	"github.com/betbot/polyclob/internal/scheduler"
)

var apiLog = logrus.WithField("component", "status_api")

// StatusSource 调度器状态（scheduler.Scheduler 实现）
type StatusSource interface {
	Status() scheduler.Status
}

// BookSource 订单簿快照（marketstate.Store 实现）
type BookSource interface {
	Book(assetID string) *marketstate.Book
}

type Config struct {
	Addr string
	// Debug 挂载 /debug/vars 与 /debug/pprof
	Debug bool
}

type Server struct {
	cfg    Config
	status StatusSource
	books  BookSource
	srv    *http.Server
}

func New(cfg Config, status StatusSource, books BookSource) (*Server, error) {
	if status == nil {
		return nil, errors.New("status source is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	return &Server{cfg: cfg, status: status, books: books}, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/status", s.handleStatus)
	r.GET("/books/:assetID", s.handleBook)
	if s.cfg.Debug {
		r.GET("/debug/*path", gin.WrapH(metrics.Handler()))
	}
	return r
}

// Start 监听端口并在后台提供服务
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	apiLog.Infof("状态接口监听 %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiLog.Errorf("状态接口退出: %v", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	st := s.status.Status()
	if st.Halted {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "halted", "error": st.LastError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stream_state": st.StreamState})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Status())
}

type levelView struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

type bookView struct {
	AssetID   string      `json:"asset_id"`
	Market    string      `json:"market"`
	Bids      []levelView `json:"bids"`
	Asks      []levelView `json:"asks"`
	Hash      string      `json:"hash,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Seq       uint64      `json:"seq"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func levels(in []marketstate.Level) []levelView {
	out := make([]levelView, 0, len(in))
	for _, l := range in {
		out = append(out, levelView{Price: l.Price, Size: l.Size})
	}
	return out
}

func (s *Server) handleBook(c *gin.Context) {
	if s.books == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no book source"})
		return
	}
	id := c.Param("assetID")
	b := s.books.Book(id)
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found", "asset_id": id})
		return
	}
	c.JSON(http.StatusOK, bookView{
		AssetID:   b.AssetID,
		Market:    b.Market,
		Bids:      levels(b.Bids),
		Asks:      levels(b.Asks),
		Hash:      b.Hash,
		Timestamp: b.Timestamp,
		Seq:       b.Seq,
		UpdatedAt: b.UpdatedAt,
	})
}
