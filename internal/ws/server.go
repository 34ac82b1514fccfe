package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/codefionn/warteraum/internal/chat"
	"github.com/codefionn/warteraum/internal/config"
	"github.com/codefionn/warteraum/internal/logger"
	"github.com/codefionn/warteraum/internal/media"
)

const maxUploadBytes = 32 << 20

// Server is the HTTP surface: the WebSocket event endpoint, the blob upload
// endpoints, and static serving of uploaded media.
type Server struct {
	cfg        *config.Config
	hub        *Hub
	engine     *chat.Engine
	media      *media.Store
	router     *httprouter.Router
	httpServer *http.Server
}

// NewServer wires the transport around an engine.
func NewServer(cfg *config.Config, engine *chat.Engine, hub *Hub, mediaStore *media.Store) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		hub:    hub,
		engine: engine,
		media:  mediaStore,
		router: httprouter.New(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.GET("/ws", s.handleWebSocket)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/api/upload-audio", s.handleUpload(chat.KindAudio, "audio"))
	s.router.POST("/api/upload-image", s.handleUpload(chat.KindImage, "image"))

	// Serve uploaded blobs back under the same paths the upload endpoints
	// return.
	for _, kind := range []chat.Kind{chat.KindAudio, chat.KindImage} {
		dir, err := s.media.Dir(kind)
		if err != nil {
			return fmt.Errorf("failed to resolve media dir: %w", err)
		}
		prefix := "/" + string(kind) + "s"
		s.router.ServeFiles(prefix+"/*filepath", http.Dir(dir))
	}
	return nil
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	go s.hub.Run()

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      withCORS(s.router),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Server listening on %s", s.cfg.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server and the hub.
func (s *Server) Stop() error {
	logger.Info("Stopping server...")
	s.hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// handleWebSocket upgrades the connection and starts its pumps. The
// transport-assigned id becomes the party's chat identity.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.cfg.AuthToken != "" && r.URL.Query().Get("token") != s.cfg.AuthToken {
		logger.Warn("WebSocket connection rejected: invalid auth token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket: %v", err)
		return
	}

	conn := NewConn(chat.ConnID(uuid.NewString()), sock, s.hub, s.engine, s.cfg.MaxMessageSize)
	s.hub.Register(conn)

	go conn.WritePump()
	go conn.ReadPump()
}

// handleUpload accepts a multipart blob and responds with its retrieval path.
func (s *Server) handleUpload(kind chat.Kind, field string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid multipart request", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile(field)
		if err != nil {
			http.Error(w, "No file uploaded", http.StatusBadRequest)
			return
		}
		defer file.Close()

		url, err := s.media.Save(kind, file, header.Filename)
		if err != nil {
			logger.Error("Failed to store %s upload: %v", kind, err)
			http.Error(w, "Failed to store upload", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(UploadResponse{URL: url}); err != nil {
			logger.Error("Failed to write upload response: %v", err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","connections":%d}`, s.hub.ConnCount())
}

// withCORS allows any origin, matching the permissive setup this service is
// deployed with (browser clients served from a different origin).
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
