package chat

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// TransitionListener recibe transiciones online/offline de identidades.
type TransitionListener interface {
	IdentityOnline(username string)
	IdentityOffline(username string)
}

// Registry es el único estado mutable compartido del sistema: el mapa en vivo
// de identidad a conexiones activas. Toda operación pasa por un solo mutex y
// los lectores reciben copias, nunca el mapa interno.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string][]*Conn
	byID     map[string]*Conn
	listener TransitionListener
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		byUser: make(map[string][]*Conn),
		byID:   make(map[string]*Conn),
		logger: logger,
	}
}

// SetListener fija el suscriptor de transiciones. Se llama una vez, al armar
// el servicio, antes de aceptar conexiones.
func (r *Registry) SetListener(l TransitionListener) {
	r.listener = l
}

// Register agrega una conexión viva y devuelve su id. La transición a online
// se notifica fuera del lock; el listener recalcula el estado desde el
// registry, así que el último frame de presencia siempre refleja el estado final.
func (r *Registry) Register(c *Conn) string {
	r.mu.Lock()
	if _, ok := r.byID[c.ID]; ok {
		r.mu.Unlock()
		return c.ID
	}
	r.byID[c.ID] = c
	r.byUser[c.Username] = append(r.byUser[c.Username], c)
	cameOnline := len(r.byUser[c.Username]) == 1
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("connection registered",
			zap.String("username", c.Username),
			zap.String("conn_id", c.ID),
		)
	}
	if cameOnline && r.listener != nil {
		r.listener.IdentityOnline(c.Username)
	}
	return c.ID
}

// Unregister quita una conexión. Es idempotente: un segundo llamado con el
// mismo id no tiene efecto, lo que tolera la carrera entre cierre explícito y
// error de socket.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	c, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)

	conns := r.byUser[c.Username]
	for i, other := range conns {
		if other.ID == id {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	wentOffline := len(conns) == 0
	if wentOffline {
		delete(r.byUser, c.Username)
	} else {
		r.byUser[c.Username] = conns
	}
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("connection unregistered",
			zap.String("username", c.Username),
			zap.String("conn_id", id),
		)
	}
	if wentOffline && r.listener != nil {
		r.listener.IdentityOffline(c.Username)
	}
}

// ConnectionsFor devuelve una copia de las conexiones vivas de una identidad.
// La entrega posterior es best-effort: alguna entrada puede haber muerto ya.
func (r *Registry) ConnectionsFor(username string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byUser[username]
	out := make([]*Conn, len(conns))
	copy(out, conns)
	return out
}

// AllOnline devuelve el conjunto ordenado de identidades con al menos una
// conexión viva. Se calcula siempre desde el registry, nunca se cachea.
func (r *Registry) AllOnline() []string {
	r.mu.RLock()
	online := make([]string, 0, len(r.byUser))
	for username := range r.byUser {
		online = append(online, username)
	}
	r.mu.RUnlock()

	sort.Strings(online)
	return online
}

// Online indica si una identidad tiene alguna conexión viva.
func (r *Registry) Online(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[username]) > 0
}

// BroadcastAll entrega un frame a todos los sockets vivos. El fallo de un
// socket no aborta la entrega al resto.
func (r *Registry) BroadcastAll(payload []byte) {
	for _, c := range r.allConns() {
		if !c.Send(payload) && r.logger != nil {
			r.logger.Debug("broadcast delivery failed",
				zap.String("username", c.Username),
				zap.String("conn_id", c.ID),
			)
		}
	}
}

func (r *Registry) allConns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}
