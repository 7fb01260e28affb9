package coordinator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/corvale/chorus/internal/transport"
)

// Server exposes a coordinator over a local WebSocket endpoint so tabs in
// other processes can join the shared session.
type Server struct {
	coord *Coordinator
	addr  string
	log   zerolog.Logger
}

// NewServer wraps a coordinator with a WebSocket listener on addr.
func NewServer(coord *Coordinator, addr string, logger zerolog.Logger) *Server {
	return &Server{
		coord: coord,
		addr:  addr,
		log:   logger.With().Str("component", "server").Logger(),
	}
}

// Run starts the coordinator actor and serves WebSocket connections until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.coord.Run(ctx)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("coordinator listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The coordinator binds to loopback; clients are local processes,
		// not browsers, so origin checks do not apply.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("tab connected")
	s.coord.Attach(transport.NewWebSocketConn(ws))
}
