// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/thor-dao/api/utils"
	"github.com/vechain/thor-dao/dao"
	"github.com/vechain/thor-dao/log"
	"github.com/vechain/thor-dao/solo"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum size of queued messages that should be sent to the peer.
	sendChannelSize = 100
)

type Backend interface {
	DAO() *dao.DAO
	SubscribeBlocks(ch chan<- *solo.Block) event.Subscription
}

type Subscriptions struct {
	backend  Backend
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(backend Backend, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		backend: backend,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleDAOEvents(w http.ResponseWriter, req *http.Request) error {
	filter := EventType(req.URL.Query().Get("type"))
	if filter != "" && !filter.Valid() {
		return utils.BadRequest(errUnknownEventType(filter))
	}

	events := make(chan *dao.Event, sendChannelSize)
	sub := s.backend.DAO().SubscribeEvents(events)
	defer sub.Unsubscribe()

	return s.serve(w, req, func(conn *websocket.Conn, closed <-chan struct{}) error {
		return pipe(s, conn, closed, events, sub, func(ev *dao.Event) any {
			if filter != "" && EventType(ev.Type) != filter {
				return nil
			}
			return convertEvent(ev)
		})
	})
}

func (s *Subscriptions) handleBlocks(w http.ResponseWriter, req *http.Request) error {
	blocks := make(chan *solo.Block, sendChannelSize)
	sub := s.backend.SubscribeBlocks(blocks)
	defer sub.Unsubscribe()

	return s.serve(w, req, func(conn *websocket.Conn, closed <-chan struct{}) error {
		return pipe(s, conn, closed, blocks, sub, func(b *solo.Block) any { return b })
	})
}

// serve upgrades the connection and runs write as its only writer while a reader
// consumes control frames.
func (s *Subscriptions) serve(w http.ResponseWriter, req *http.Request, write func(*websocket.Conn, <-chan struct{}) error) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade websocket", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read", "err", err)
				}
				return
			}
		}
	}()

	if err := write(conn, closed); err != nil {
		logger.Debug("websocket write", "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	return nil
}

func pipe[T any](s *Subscriptions, conn *websocket.Conn, closed <-chan struct{}, ch <-chan T, sub event.Subscription, convert func(T) any) error {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		case <-closed:
			return nil
		case err := <-sub.Err():
			return err
		case v := <-ch:
			msg := convert(v)
			if msg == nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// Close ends all connections and waits for their handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/dao").
		Methods(http.MethodGet).
		Name("subscriptions_dao").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDAOEvents))
	sub.Path("/block").
		Methods(http.MethodGet).
		Name("subscriptions_block").
		HandlerFunc(utils.WrapHandlerFunc(s.handleBlocks))
}
