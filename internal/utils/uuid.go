package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered identifiers for locally created
// entities (pending actions, temporary records). V7 UUIDs sort by creation
// time, which keeps id order consistent with enqueue order.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
