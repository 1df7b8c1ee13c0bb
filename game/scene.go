package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bubbles/components"
	"github.com/pthm-cable/bubbles/systems"
)

// Scene mirrors the particle field as ECS entities, one per bubble.
// Sync copies published positions after each frame.
type Scene struct {
	world *ecs.World

	mapper *ecs.Map2[components.Position, components.Bubble]
	filter *ecs.Filter2[components.Position, components.Bubble]

	count int
}

// NewScene creates one entity per position.
func NewScene(positions []systems.Point3) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:  world,
		mapper: ecs.NewMap2[components.Position, components.Bubble](world),
		filter: ecs.NewFilter2[components.Position, components.Bubble](world),
	}

	for i, p := range positions {
		pos := toPosition(p)
		bubble := components.Bubble{Index: i}
		s.mapper.NewEntity(&pos, &bubble)
	}
	s.count = len(positions)
	return s
}

// Len returns the number of bubble entities.
func (s *Scene) Len() int {
	return s.count
}

// Sync writes positions into the entities. The length must match the
// entity count.
func (s *Scene) Sync(positions []systems.Point3) error {
	if len(positions) != s.count {
		return fmt.Errorf("scene has %d bubbles, got %d positions: %w", s.count, len(positions), systems.ErrInvalidParameter)
	}

	query := s.filter.Query()
	for query.Next() {
		pos, bubble := query.Get()
		*pos = toPosition(positions[bubble.Index])
	}
	return nil
}

// Each calls fn for every bubble entity.
func (s *Scene) Each(fn func(index int, pos components.Position)) {
	query := s.filter.Query()
	for query.Next() {
		pos, bubble := query.Get()
		fn(bubble.Index, *pos)
	}
}

func toPosition(p systems.Point3) components.Position {
	return components.Position{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}
