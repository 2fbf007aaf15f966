package natsbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// StartEmbedded arranca un servidor NATS en proceso (peer de desarrollo y tests).
// port -1 elige un puerto libre. Devuelve el servidor listo para aceptar conexiones.
func StartEmbedded(host string, port int, token string) (*server.Server, error) {
	opts := &server.Options{
		Host:          host,
		Port:          port,
		Authorization: token,
		NoLog:         true,
		NoSigs:        true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("crear servidor nats: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("servidor nats no quedó listo en %s:%d", host, port)
	}
	return ns, nil
}
