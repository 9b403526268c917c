// Package entities holds the old maid domain: the waiting room, the game with
// its players and table, and the hand telepresence used while one player pulls
// a card from another.
//
// Every entity is immutable. Transitions return a new value and leave the
// receiver untouched. Mutating transitions take a capability context that can
// only be obtained by presenting the right secret for the exact entity, and the
// transition rejects a context bound to a different id.
package entities
