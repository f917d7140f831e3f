// Package kanban holds the domain model for Kanban reorder cards: the card
// record produced by enrichment, the input surface for item codes and the
// generated document handed back to callers.
package kanban
