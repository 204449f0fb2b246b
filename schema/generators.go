package schema

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ValueGenerator produces a value for a column an inserted row left out.
// Values are returned in a form every supported driver accepts.
type ValueGenerator interface {
	Generate() (any, error)
	Name() string
}

// UUIDGenerator generates random (v4) UUIDs in canonical text form.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

func (UUIDGenerator) Name() string { return "uuid" }

// ULIDGenerator generates monotonic ULIDs in canonical text form.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

func (*ULIDGenerator) Name() string { return "ulid" }

// SnowflakeGenerator generates 63-bit time ordered integers:
// 41 bits of milliseconds since epoch | 10 bits machine | 12 bits sequence.
type SnowflakeGenerator struct {
	mu        sync.Mutex
	machineID uint64
	sequence  uint64
	lastTime  uint64
	epoch     uint64
}

func NewSnowflakeGenerator(machineID uint64) *SnowflakeGenerator {
	epoch := uint64(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	return &SnowflakeGenerator{
		machineID: machineID & 0x3FF,
		epoch:     epoch,
	}
}

func (g *SnowflakeGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := uint64(time.Now().UnixMilli())
	if now < g.lastTime {
		return nil, fmt.Errorf("snowflake: clock moved backwards by %dms", g.lastTime-now)
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & 0xFFF
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = uint64(time.Now().UnixMilli())
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return int64(((now - g.epoch) << 22) | (g.machineID << 12) | g.sequence), nil
}

func (*SnowflakeGenerator) Name() string { return "snowflake" }

// GeneratorRegistry maps generator names to generators.
type GeneratorRegistry struct {
	mu         sync.RWMutex
	generators map[string]ValueGenerator
}

var defaultRegistry = NewGeneratorRegistry()

// NewGeneratorRegistry returns a registry holding the uuid, ulid and
// snowflake generators.
func NewGeneratorRegistry() *GeneratorRegistry {
	r := &GeneratorRegistry{generators: make(map[string]ValueGenerator)}
	r.Register(UUIDGenerator{})
	r.Register(NewULIDGenerator())
	r.Register(NewSnowflakeGenerator(1))
	return r
}

func (r *GeneratorRegistry) Register(g ValueGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Name()] = g
}

func (r *GeneratorRegistry) Get(name string) (ValueGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	return g, ok
}

func (r *GeneratorRegistry) Generate(name string) (any, error) {
	g, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown generator type: %s", name)
	}
	return g.Generate()
}

// RegisterGenerator adds g to the default registry.
func RegisterGenerator(g ValueGenerator) {
	defaultRegistry.Register(g)
}

// GenerateValue runs the named generator from the default registry.
func GenerateValue(name string) (any, error) {
	return defaultRegistry.Generate(name)
}
