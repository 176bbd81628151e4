package ws

import (
	"net/http"
	"time"

	"musicquiz/internal/auth"
	"musicquiz/internal/config"
	"musicquiz/internal/metrics"
	"musicquiz/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readLimit    = 64 << 10
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 封装一条 websocket 链路及其发送缓冲。
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
}

func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.closed:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

// Serve 处理 websocket 升级：校验会话 token，分配连接 ID，
// 把后续消息交给协调器，链路断开时触发 OnDisconnect。
func Serve(coord *relay.Coordinator, table *Table, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// token 可通过 Authorization 头或 query 参数携带（浏览器 WS 无法设头）。
		authz := c.GetHeader("Authorization")
		token := c.Query("token")
		if token == "" && len(authz) > 7 && (authz[:7] == "Bearer " || authz[:7] == "bearer ") {
			token = authz[7:]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseSessionToken(token, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			id:     uuid.NewString(),
			conn:   conn,
			send:   make(chan []byte, 256),
			closed: make(chan struct{}),
		}
		table.Add(client)
		// join 时只接受会话所声明的 userId。
		coord.Bind(client.id, claims.UserID, claims.DisplayName)
		metrics.WsConnections.Inc()

		go client.writePump()
		client.readPump(coord, table)
	}
}

func (c *Client) readPump(coord *relay.Coordinator, table *Table) {
	defer func() {
		table.Remove(c.id)
		coord.OnDisconnect(c.id)
		metrics.WsConnections.Dec()
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		coord.HandleMessage(c.id, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.closed:
			// 先冲刷缓冲里的消息（比如 displaced 通知）再发关闭帧。
			for {
				select {
				case message := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					w, err := c.conn.NextWriter(websocket.TextMessage)
					if err != nil {
						return
					}
					_, _ = w.Write(message)
					_ = w.Close()
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
