package base

import (
	"fmt"
	"sync"
)

// PortManager hands out chromedriver ports so concurrent selenium sessions
// never collide.
type PortManager struct {
	basePort  int
	portRange int
	PortMap   map[int]bool
	mutex     sync.Mutex
}

var (
	GlobalPortManager *PortManager
	once              sync.Once
)

// InitPortManager initializes the global port manager
func InitPortManager(basePort, portRange int) {
	once.Do(func() {
		GlobalPortManager = NewPortManager(basePort, portRange)
	})
}

// NewPortManager creates a new port manager with the specified base port and range
func NewPortManager(basePort, portRange int) *PortManager {
	portMap := make(map[int]bool, portRange)
	for i := 0; i < portRange; i++ {
		portMap[basePort+i] = false
	}

	return &PortManager{
		basePort:  basePort,
		portRange: portRange,
		PortMap:   portMap,
	}
}

// GetPort reserves the lowest free port
func (pm *PortManager) GetPort() (int, error) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	for i := 0; i < pm.portRange; i++ {
		port := pm.basePort + i
		if !pm.PortMap[port] {
			pm.PortMap[port] = true
			return port, nil
		}
	}

	return 0, fmt.Errorf("no available ports in range %d-%d", pm.basePort, pm.basePort+pm.portRange-1)
}

// ReleasePort returns port to the pool
func (pm *PortManager) ReleasePort(port int) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if _, ok := pm.PortMap[port]; ok {
		pm.PortMap[port] = false
	}
}
