// Command caissa-server exposes the search engine over HTTP: GET /move
// returns the best move for a FEN position under a depth or time budget.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caissadev/caissa/internal/engine"
	"github.com/caissadev/caissa/internal/rules"
)

const defaultMoveTime = time.Second

type server struct {
	log         zerolog.Logger
	maxMoveTime time.Duration

	// The engine is a single search session; requests take turns.
	mu   sync.Mutex
	eng  *engine.Engine
	last engine.SearchInfo
}

func newServer(eng *engine.Engine, log zerolog.Logger, maxMoveTime time.Duration) *server {
	s := &server{log: log, maxMoveTime: maxMoveTime, eng: eng}
	// Called during FindBestMove, which only runs under s.mu.
	eng.OnInfo = func(info engine.SearchInfo) { s.last = info }
	return s
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/move", s.handleMove)
	r.GET("/stats", s.handleStats)
	r.POST("/reset", s.handleReset)
	return r
}

func (s *server) handleMove(c *gin.Context) {
	fen, ok := c.GetQuery("fen")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "fen parameter is missing"})
		return
	}
	pos, err := rules.FromFEN(fen)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var limits engine.SearchLimits
	if d := c.Query("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "depth must be a positive integer"})
			return
		}
		limits.Depth = n
	}
	if ms := c.Query("ms"); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ms must be a positive integer"})
			return
		}
		limits.MoveTime = time.Duration(n) * time.Millisecond
		if limits.MoveTime > s.maxMoveTime {
			limits.MoveTime = s.maxMoveTime
		}
	}
	if limits.Depth == 0 && limits.MoveTime == 0 {
		limits.MoveTime = defaultMoveTime
	}

	s.mu.Lock()
	s.last = engine.SearchInfo{}
	start := time.Now()
	move, found := s.eng.FindBestMove(pos, limits)
	info := s.last
	elapsed := time.Since(start)
	s.mu.Unlock()

	if !found {
		status := "stalemate"
		if pos.IsCheckmate() {
			status = "checkmate"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
		return
	}

	s.log.Info().
		Str("move", move.UCI()).
		Int("depth", info.Depth).
		Uint64("nodes", info.Nodes).
		Dur("elapsed", elapsed).
		Msg("move served")

	c.JSON(http.StatusOK, gin.H{
		"bestMove":  move.UCI(),
		"score":     info.Score,
		"scoreText": engine.ScoreToString(info.Score),
		"depth":     info.Depth,
		"nodes":     info.Nodes,
		"timeMs":    elapsed.Milliseconds(),
	})
}

func (s *server) handleStats(c *gin.Context) {
	s.mu.Lock()
	hitRate := s.eng.CacheHitRate()
	nodes := s.eng.Nodes()
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"cacheHitRate": hitRate,
		"nodes":        nodes,
	})
}

func (s *server) handleReset(c *gin.Context) {
	s.mu.Lock()
	s.eng.Clear()
	s.mu.Unlock()
	s.log.Info().Msg("session cleared")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func main() {
	var (
		addr  = flag.String("addr", envOr("CAISSA_ADDR", ":8080"), "listen address")
		ttMB  = flag.Int("tt-mb", envOrInt("CAISSA_TT_MB", 64), "transposition cache size in MB")
		maxMS = flag.Int("max-move-ms", envOrInt("CAISSA_MAX_MOVE_MS", 30000), "cap on per-request time budget")
		debug = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	srv := newServer(engine.NewEngine(*ttMB), log, time.Duration(*maxMS)*time.Millisecond)
	httpSrv := &http.Server{Addr: *addr, Handler: srv.router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", *addr).Int("tt_mb", *ttMB).Msg("listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
