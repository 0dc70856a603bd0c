// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ogmios_mock provides a WebSocket server which plays back a scripted conversation
// with a client
package ogmios_mock

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/gogmios/jsonrpc"
	"github.com/gorilla/websocket"
)

// Server mocks an Ogmios server
type Server struct {
	httpServer   *httptest.Server
	upgrader     websocket.Upgrader
	conversation []ConversationEntry
	errorChan    chan error
	onceFinish   sync.Once
	waitGroup    sync.WaitGroup
	mutex        sync.Mutex
	conns        []*websocket.Conn
	requests     []Request
}

// NewServer starts a mock server which plays the provided conversation with each client
func NewServer(conversation []ConversationEntry) *Server {
	s := &Server{
		conversation: conversation,
		errorChan:    make(chan error, 1),
	}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handleConnection))
	return s
}

// URL returns the WebSocket URL of the server
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

// Host returns the listen host of the server
func (s *Server) Host() string {
	return s.httpServer.Listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port of the server
func (s *Server) Port() uint16 {
	return uint16(s.httpServer.Listener.Addr().(*net.TCPAddr).Port) // #nosec G115
}

// ErrorChan returns a channel which receives any conversation mismatch. It's closed once the
// conversation has been played back
func (s *Server) ErrorChan() <-chan error {
	return s.errorChan
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ret := make([]Request, len(s.requests))
	copy(ret, s.requests)
	return ret
}

// RequestCount returns the number of requests received for the specified method
func (s *Server) RequestCount(method string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	count := 0
	for _, req := range s.requests {
		if req.Method == method {
			count++
		}
	}
	return count
}

// Close disconnects all clients and stops the server
func (s *Server) Close() {
	s.mutex.Lock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.mutex.Unlock()
	s.httpServer.Close()
	s.waitGroup.Wait()
	s.finish(nil)
}

func (s *Server) finish(err error) {
	s.onceFinish.Do(func() {
		if err != nil {
			s.errorChan <- err
		}
		close(s.errorChan)
	})
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	s.waitGroup.Add(1)
	defer s.waitGroup.Done()
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.finish(fmt.Errorf("upgrade error: %w", err))
		return
	}
	s.mutex.Lock()
	s.conns = append(s.conns, conn)
	s.mutex.Unlock()
	defer conn.Close()
	if err := s.playConversation(conn); err != nil {
		s.finish(err)
		return
	}
	s.finish(nil)
	// Keep recording requests until the client goes away
	for {
		if _, err := s.readRequest(conn); err != nil {
			return
		}
	}
}

func (s *Server) playConversation(conn *websocket.Conn) error {
	var inputs []Request
	for _, entry := range s.conversation {
		switch entry.Type {
		case EntryTypeInput:
			req, err := s.readRequest(conn)
			if err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			if req.Method != entry.Method {
				return fmt.Errorf(
					"input request method did not match expected value: expected %s, got %s",
					entry.Method,
					req.Method,
				)
			}
			if entry.Params != nil {
				if err := compareParams(entry.Params, req.Params); err != nil {
					return err
				}
			}
			inputs = append(inputs, req)
		case EntryTypeOutput:
			idx := len(inputs) - 1
			if entry.InputIndex > 0 {
				idx = entry.InputIndex - 1
			}
			if idx < 0 || idx >= len(inputs) {
				return fmt.Errorf("output entry refers to unknown request %d", idx+1)
			}
			var resp *jsonrpc.Response
			if entry.Error != nil {
				resp = jsonrpc.NewErrorResponse(inputs[idx].ID, entry.Error)
			} else {
				result := entry.Result
				if entry.ResultFunc != nil {
					result = entry.ResultFunc(inputs[idx])
				}
				var err error
				resp, err = jsonrpc.NewResponse(inputs[idx].ID, result)
				if err != nil {
					return err
				}
			}
			data, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case EntryTypeRaw:
			if err := conn.WriteMessage(websocket.TextMessage, entry.Raw); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case EntryTypeClose:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return nil
		default:
			return fmt.Errorf("unknown conversation entry type: %d: %#v", entry.Type, entry)
		}
	}
	return nil
}

func (s *Server) readRequest(conn *websocket.Conn) (Request, error) {
	var req Request
	_, data, err := conn.ReadMessage()
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode error: %w", err)
	}
	s.mutex.Lock()
	s.requests = append(s.requests, req)
	s.mutex.Unlock()
	return req, nil
}

func compareParams(expected any, actual json.RawMessage) error {
	expectedData, err := json.Marshal(expected)
	if err != nil {
		return err
	}
	var expectedVal, actualVal any
	if err := json.Unmarshal(expectedData, &expectedVal); err != nil {
		return err
	}
	if len(actual) > 0 {
		if err := json.Unmarshal(actual, &actualVal); err != nil {
			return err
		}
	}
	if !reflect.DeepEqual(expectedVal, actualVal) {
		return fmt.Errorf(
			"input request params did not match expected value: expected %s, got %s",
			expectedData,
			actual,
		)
	}
	return nil
}
