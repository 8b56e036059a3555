package model

import "log"

// indexer interface is design to give a unique index to a (lesson, room) pair and vice versa
type indexer interface {
	// Returns a unique index (starting at 1) for the variable "lesson is held in room"
	Index(lesson, room uint64) uint64
	// Returns the (lesson, room) pair from a unique index
	Attributes(index uint64) (lesson uint64, room uint64)
	// Total number of variables
	Variables() uint64
}

type indexerImplementation struct {
	lessons uint64
	rooms   uint64
}

func newIndexer(lessons, rooms uint64) indexer {
	return &indexerImplementation{
		lessons: lessons,
		rooms:   rooms,
	}
}

func (indexer *indexerImplementation) Index(lesson, room uint64) uint64 {
	if lesson >= indexer.lessons || room >= indexer.rooms {
		log.Panicf("pair (%v, %v) is outside of the %vx%v variable grid", lesson, room, indexer.lessons, indexer.rooms)
	}
	return room + indexer.rooms*lesson + 1
}

func (indexer *indexerImplementation) Attributes(index uint64) (lesson, room uint64) {
	if index == 0 || index > indexer.Variables() {
		log.Panicf("variable %v is outside of the %vx%v variable grid", index, indexer.lessons, indexer.rooms)
	}
	index = index - 1
	room = index % indexer.rooms
	lesson = index / indexer.rooms
	return lesson, room
}

func (indexer *indexerImplementation) Variables() uint64 {
	return indexer.lessons * indexer.rooms
}
