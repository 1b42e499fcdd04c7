package game

import "fmt"

// recentMessageCount is how many messages the feed keeps.
const recentMessageCount = 3

// Narrative messages posted to collaborators.
const (
	msgStarted       = "Simulation started!"
	msgStopped       = "Simulation stopped."
	msgNeedEntities  = "Add animals and plants first!"
	msgAlreadyActive = "Simulation is already running!"
	msgReset         = "Reset! Start a new ecosystem!"
	msgCollapse      = "Ecosystem empty! Add more friends!"
	msgStarvation    = "No prey left! Wolves might starve!"
	msgScarcity      = "No grass! Prey will struggle!"
	msgKill          = "A wolf ate a sheep!"
	msgGraze         = "Sheep ate grass!"
	msgRegrow        = "Grass grew back!"
	msgRainPlant     = "Rain grew new plant!"
	msgPreyBorn      = "A sheep was born!"
	msgPredatorBorn  = "A wolf was born!"
)

// feed keeps the most recent messages and drops consecutive duplicates.
type feed struct {
	recent []string
}

// push records msg and reports whether it was new.
func (f *feed) push(msg string) bool {
	if n := len(f.recent); n > 0 && f.recent[n-1] == msg {
		return false
	}
	f.recent = append(f.recent, msg)
	if len(f.recent) > recentMessageCount {
		f.recent = append(f.recent[:0], f.recent[len(f.recent)-recentMessageCount:]...)
	}
	return true
}

// Recent returns a copy of the kept messages, oldest first.
func (f *feed) Recent() []string {
	out := make([]string, len(f.recent))
	copy(out, f.recent)
	return out
}

func (f *feed) clear() {
	f.recent = f.recent[:0]
}

// post records a message and notifies listeners unless it repeats the last one.
func (g *Game) post(msg string) {
	if !g.feed.push(msg) {
		return
	}
	for _, fn := range g.onMessage {
		fn(msg)
	}
}

func (g *Game) postf(format string, args ...any) {
	g.post(fmt.Sprintf(format, args...))
}
