package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Bucknalla/go-waypoint-manager/waypoint"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// segmentRequest is the body of POST /api/segment
type segmentRequest struct {
	StartID      int64 `json:"start_id"`
	WindowLength int   `json:"window_length"`
}

// segmentResponse describes an extracted segment
type segmentResponse struct {
	StartID      int64               `json:"start_id"`
	WindowLength int                 `json:"window_length"`
	IDs          []int64             `json:"ids"`
	Waypoints    []waypoint.Waypoint `json:"waypoints"`
	Legs         []waypoint.Leg      `json:"legs"`
	Distance     float64             `json:"distance"`
}

type WebServer struct {
	mu          sync.RWMutex
	mission     waypoint.MissionCommand
	extractions int
	failures    int

	metrics   *segmentMetrics
	upgrader  websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan segmentResponse
}

func NewWebServer(reg prometheus.Registerer) (*WebServer, error) {
	metrics, err := newSegmentMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &WebServer{
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan segmentResponse, 16),
	}, nil
}

// SetMission replaces the mission command snapshot used for extraction
func (ws *WebServer) SetMission(mission waypoint.MissionCommand) error {
	if err := mission.Validate(); err != nil {
		return err
	}

	snapshot := make(waypoint.MissionCommand, len(mission))
	copy(snapshot, mission)

	ws.mu.Lock()
	ws.mission = snapshot
	ws.mu.Unlock()

	ws.metrics.MissionWaypoints.Set(float64(len(snapshot)))
	return nil
}

func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ws.clientsMu.Lock()
	ws.clients[conn] = true
	log.Printf("Client connected. Total clients: %d", len(ws.clients))
	ws.clientsMu.Unlock()

	// Drain client messages until the connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("WebSocket read error: %v", err)
			break
		}
	}

	ws.clientsMu.Lock()
	delete(ws.clients, conn)
	log.Printf("Client disconnected. Total clients: %d", len(ws.clients))
	ws.clientsMu.Unlock()
}

func (ws *WebServer) broadcastToClients() {
	for seg := range ws.broadcast {
		message := map[string]interface{}{
			"type": "segment",
			"data": seg,
		}

		ws.clientsMu.Lock()
		for client := range ws.clients {
			if err := client.WriteJSON(message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				client.Close()
				delete(ws.clients, client)
			}
		}
		ws.clientsMu.Unlock()
	}
}

func (ws *WebServer) handleSetMission(w http.ResponseWriter, r *http.Request) {
	mission, err := waypoint.ReadMissionJSON(r.Body)
	if err != nil {
		log.Printf("Mission decode error: %v", err)
		http.Error(w, fmt.Sprintf("Invalid mission command: %v", err), http.StatusBadRequest)
		return
	}

	if err := ws.SetMission(mission); err != nil {
		log.Printf("Mission rejected: %v", err)
		http.Error(w, fmt.Sprintf("Invalid mission command: %v", err), http.StatusBadRequest)
		return
	}

	log.Printf("Mission command loaded: %d waypoints", len(mission))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "loaded", "waypoints": len(mission)})
}

func (ws *WebServer) handleGetMission(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	mission := ws.mission
	ws.mu.RUnlock()

	if mission == nil {
		mission = waypoint.MissionCommand{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mission)
}

func (ws *WebServer) handleExtractSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	ws.mu.RLock()
	mission := ws.mission
	ws.mu.RUnlock()

	if len(mission) == 0 {
		http.Error(w, "No mission command loaded", http.StatusConflict)
		return
	}

	seg, err := waypoint.ExtractSegment(mission, req.StartID, req.WindowLength)
	if err != nil {
		ws.recordExtraction(false)
		log.Printf("Segment extraction failed: start=%d window=%d: %v", req.StartID, req.WindowLength, err)

		status := http.StatusUnprocessableEntity
		if errors.Is(err, waypoint.ErrInvalidWindowLength) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Failed to extract segment: %v", err), status)
		return
	}
	ws.recordExtraction(true)
	ws.metrics.WindowLength.Observe(float64(req.WindowLength))

	resp := segmentResponse{
		StartID:      req.StartID,
		WindowLength: req.WindowLength,
		IDs:          seg.IDs(),
		Waypoints:    seg.Waypoints(),
		Legs:         seg.Legs(),
		Distance:     seg.Distance(),
	}
	if resp.Legs == nil {
		resp.Legs = []waypoint.Leg{}
	}

	select {
	case ws.broadcast <- resp:
	default:
		// Channel full, skip this update
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (ws *WebServer) recordExtraction(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	ws.metrics.Extractions.WithLabelValues(result).Inc()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ok {
		ws.extractions++
	} else {
		ws.failures++
	}
}

func (ws *WebServer) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	status := map[string]interface{}{
		"mission_waypoints": len(ws.mission),
		"extractions":       ws.extractions,
		"failures":          ws.failures,
	}
	ws.mu.RUnlock()

	ws.clientsMu.Lock()
	status["clients"] = len(ws.clients)
	ws.clientsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Router builds the HTTP routes for the server
func (ws *WebServer) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/mission", ws.handleSetMission).Methods("POST")
	api.HandleFunc("/mission", ws.handleGetMission).Methods("GET")
	api.HandleFunc("/segment", ws.handleExtractSegment).Methods("POST")
	api.HandleFunc("/status", ws.handleGetStatus).Methods("GET")
	api.HandleFunc("/ws", ws.handleWebSocket)

	r.Handle("/metrics", ws.metrics.Handler()).Methods("GET")

	return r
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	missionFile := flag.String("mission", "", "Mission command file (.json or .gpx) to load at startup")
	logFile := flag.String("log-file", "", "Write log messages to a rotating log file instead of stderr")
	flag.Parse()

	if *logFile != "" {
		w := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    64, // MB
			MaxAge:     14,
			Compress:   true,
			MaxBackups: 5,
		}
		defer w.Close()
		log.SetOutput(w)
	}

	webServer, err := NewWebServer(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	if *missionFile != "" {
		mission, err := waypoint.LoadMissionFile(*missionFile)
		if err != nil {
			log.Fatalf("Failed to load mission command: %v", err)
		}
		if err := webServer.SetMission(mission); err != nil {
			log.Fatalf("Invalid mission command %s: %v", *missionFile, err)
		}
		log.Printf("Loaded mission command %s (%d waypoints)", *missionFile, len(mission))
	}

	// Start the broadcast goroutine
	go webServer.broadcastToClients()

	log.Printf("Starting Waypoint Manager Web Server on %s", *addr)

	server := &http.Server{
		Addr:         *addr,
		Handler:      webServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}
