package broadcast

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// Размер буфера отправки на клиента. Рассчитан на класс из нескольких
// десятков учеников; при переполнении кадры отбрасываются (at-most-once).
const clientSendBuffer = 64

// Hub держит websocket-подключения клиентов по занятиям и рассылает события.
// Комната — это занятие; внутри комнаты клиенты ключуются по id ребёнка
// (для учителя и админов — по id пользователя со знаком минус, чтобы не
// пересекаться с детьми).
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[int64]*client
	logger *zap.Logger

	// Колбэки для отметки connection_status; задаются при сборке приложения
	OnConnect    func(sessionID, clientID int64)
	OnDisconnect func(sessionID, clientID int64)
}

type client struct {
	clientID int64
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[int64]*client),
		logger: logger,
	}
}

// Publish рассылает событие всем подключённым клиентам занятия, кроме
// исключённого. Медленный клиент кадр теряет, рассылка никого не ждёт.
func (h *Hub) Publish(sessionID int64, event Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("event", event.Name), zap.Error(err))
		return
	}

	h.mu.RLock()
	room := h.rooms[sessionID]
	for clientID, cl := range room {
		if event.ExcludeClientID != 0 && clientID == event.ExcludeClientID {
			continue
		}
		select {
		case cl.send <- frame:
		default:
			// Буфер клиента переполнен — кадр отбрасываем
			h.logger.Warn("Client send buffer full, frame dropped",
				zap.Int64("session_id", sessionID),
				zap.Int64("client_id", clientID),
				zap.String("event", event.Name),
			)
		}
	}
	h.mu.RUnlock()
}

// Serve обслуживает одно websocket-подключение до разрыва.
// Аутентификацию и привязку к занятию делает вызывающий (контроллер).
func (h *Hub) Serve(conn *websocket.Conn, sessionID, clientID int64) {
	cl := &client{
		clientID: clientID,
		conn:     conn,
		send:     make(chan []byte, clientSendBuffer),
		done:     make(chan struct{}),
	}

	h.register(sessionID, cl)
	if h.OnConnect != nil {
		h.OnConnect(sessionID, clientID)
	}

	defer func() {
		// Вытеснённое переподключением соединение участника не отключает:
		// его место в комнате уже занято новым
		if h.unregister(sessionID, cl) && h.OnDisconnect != nil {
			h.OnDisconnect(sessionID, clientID)
		}
	}()

	// Писатель: качаем кадры из буфера в соединение
	go func() {
		for {
			select {
			case frame, ok := <-cl.send:
				if !ok {
					return
				}
				if err := websocket.Message.Send(conn, string(frame)); err != nil {
					cl.close()
					return
				}
			case <-cl.done:
				return
			}
		}
	}()

	// Читатель: входящие кадры не несут команд (все мутации идут через HTTP),
	// читаем только чтобы заметить разрыв соединения
	for {
		var discard string
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			if err != io.EOF {
				h.logger.Debug("Websocket read closed",
					zap.Int64("session_id", sessionID),
					zap.Int64("client_id", clientID),
					zap.Error(err),
				)
			}
			cl.close()
			return
		}
	}
}

// RoomSize возвращает число подключённых клиентов занятия
func (h *Hub) RoomSize(sessionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) register(sessionID int64, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[int64]*client)
		h.rooms[sessionID] = room
	}

	// Повторное подключение того же ребёнка вытесняет старое:
	// закрываем и канал, и само соединение, чтобы его читатель не висел
	if old, ok := room[cl.clientID]; ok {
		old.close()
		old.conn.Close()
	}
	room[cl.clientID] = cl
}

// unregister снимает клиента с комнаты. Возвращает false, если клиент
// уже был вытеснён переподключением и комнату не покидал.
func (h *Hub) unregister(sessionID int64, cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		return false
	}

	current, ok := room[cl.clientID]
	if !ok || current != cl {
		return false
	}

	delete(room, cl.clientID)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
	}
	return true
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}
