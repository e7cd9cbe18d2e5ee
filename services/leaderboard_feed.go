package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/leaderboard"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// LeaderboardFeed fans live leaderboard updates out to websocket clients.
// The store subscription is held only while at least one client is
// connected; the last disconnect releases it.
type LeaderboardFeed struct {
	svc *LeaderboardService

	clients    map[*FeedClient]bool
	register   chan *FeedClient
	unregister chan *FeedClient
	broadcast  chan []byte

	unsubscribe store.Unsubscribe
}

func NewLeaderboardFeed(svc *LeaderboardService) *LeaderboardFeed {
	return &LeaderboardFeed{
		svc:        svc,
		clients:    make(map[*FeedClient]bool),
		register:   make(chan *FeedClient),
		unregister: make(chan *FeedClient),
		broadcast:  make(chan []byte, 8),
	}
}

// Run owns the client map. Call it once, in its own goroutine.
func (f *LeaderboardFeed) Run() {
	for {
		select {
		case client := <-f.register:
			if len(f.clients) == 0 {
				f.startSubscription()
			}
			f.clients[client] = true
			log.Printf("[LeaderboardFeed] Client connected. Count: %d", len(f.clients))

		case client := <-f.unregister:
			if _, ok := f.clients[client]; ok {
				delete(f.clients, client)
				close(client.Send)
				log.Printf("[LeaderboardFeed] Client disconnected. Count: %d", len(f.clients))

				if len(f.clients) == 0 {
					f.stopSubscription()
				}
			}

		case message := <-f.broadcast:
			for client := range f.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(f.clients, client)
				}
			}
		}
	}
}

func (f *LeaderboardFeed) Register() chan<- *FeedClient   { return f.register }
func (f *LeaderboardFeed) Unregister() chan<- *FeedClient { return f.unregister }

func (f *LeaderboardFeed) startSubscription() {
	unsub, err := f.svc.Subscribe(func(lb *leaderboard.Leaderboard) {
		payload, err := json.Marshal(map[string]interface{}{
			"action":      "leaderboard_update",
			"leaderboard": lb,
		})
		if err != nil {
			log.Printf("[LeaderboardFeed] Failed to marshal update: %v", err)
			return
		}
		f.broadcast <- payload
	})
	if err != nil {
		log.Printf("[LeaderboardFeed] Failed to subscribe: %v", err)
		return
	}
	f.unsubscribe = unsub
}

func (f *LeaderboardFeed) stopSubscription() {
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}

// FeedClient sits between one websocket connection and the feed.
type FeedClient struct {
	Feed *LeaderboardFeed
	Conn *websocket.Conn
	Send chan []byte
}

func NewFeedClient(feed *LeaderboardFeed, conn *websocket.Conn) *FeedClient {
	return &FeedClient{
		Feed: feed,
		Conn: conn,
		Send: make(chan []byte, 8),
	}
}

// ReadPump drains the connection so pings are answered and a close from the
// peer unregisters the client. The feed is one-way; inbound payloads are
// discarded.
func (c *FeedClient) ReadPump() {
	defer func() {
		c.Feed.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *FeedClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
