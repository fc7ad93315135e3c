package world

import "math/rand"

const (
	dialogueDivisor     = 12
	dialogueMaxQueue    = 16
	ambientBarkInterval = 40.0
)

// Bark is a one-shot line of world flavor text surfaced to clients.
type Bark struct {
	Source string `json:"source"`
	Line   string `json:"line"`
}

var ambientBarks = []string{
	"The embers whisper of something stirring below.",
	"A cold wind carries ash across the valley.",
	"Somewhere far off, stone grinds against stone.",
}

var bossPhaseBarks = map[BossPhase]string{
	BossPhaseFrenzy:    "You only feed the flame!",
	BossPhaseDesperate: "I will not fall to kindling like you!",
}

// Dialogue queues ambient and boss barks on a slow cadence. Boss phase
// changes enqueue immediately from the combat path; the cadence only governs
// ambient chatter and queue trimming.
type Dialogue struct {
	subsystemBase
	queue      []Bark
	ambientAcc float64
	rng        *rand.Rand
}

func NewDialogue(cfg Config) *Dialogue {
	return &Dialogue{
		subsystemBase: subsystemBase{id: "subsystem-dialogue", divisor: dialogueDivisor},
		rng:           NewDeterministicRNG(cfg.Seed, "dialogue"),
	}
}

func (d *Dialogue) Update(dt float64) {
	if d == nil || d.dead {
		return
	}
	d.ambientAcc += dt
	if d.ambientAcc >= ambientBarkInterval {
		d.ambientAcc = 0
		d.push(Bark{Source: "world", Line: ambientBarks[d.rng.Intn(len(ambientBarks))]})
	}
}

// OnBossPhase enqueues the bark for a boss phase transition, if any.
func (d *Dialogue) OnBossPhase(bossID string, phase BossPhase) {
	if d == nil {
		return
	}
	line, ok := bossPhaseBarks[phase]
	if !ok {
		return
	}
	d.push(Bark{Source: bossID, Line: line})
}

func (d *Dialogue) push(bark Bark) {
	d.queue = append(d.queue, bark)
	if len(d.queue) > dialogueMaxQueue {
		d.queue = d.queue[len(d.queue)-dialogueMaxQueue:]
	}
}

// DrainBarks returns and clears the queued barks.
func (d *Dialogue) DrainBarks() []Bark {
	if d == nil || len(d.queue) == 0 {
		return nil
	}
	barks := d.queue
	d.queue = nil
	return barks
}
