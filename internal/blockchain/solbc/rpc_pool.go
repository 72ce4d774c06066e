// internal/blockchain/solbc/rpc_pool.go
package solbc

import (
	"sync"

	"github.com/gagliardetto/solana-go/rpc"
)

// RPCPool раздаёт RPC-клиенты по кругу, распределяя нагрузку между узлами.
type RPCPool struct {
	clients []*rpc.Client
	mutex   sync.Mutex
	index   int
}

// NewRPCPool создаёт пул клиентов из списка URL.
func NewRPCPool(rpcList []string) *RPCPool {
	clients := make([]*rpc.Client, 0, len(rpcList))
	for _, url := range rpcList {
		clients = append(clients, rpc.New(url))
	}
	return &RPCPool{clients: clients}
}

// Get возвращает следующий доступный RPC-клиент (круговой цикл).
func (p *RPCPool) Get() *rpc.Client {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	client := p.clients[p.index]
	p.index = (p.index + 1) % len(p.clients)
	return client
}

// Size возвращает количество клиентов в пуле.
func (p *RPCPool) Size() int {
	return len(p.clients)
}
