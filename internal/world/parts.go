package world

// Part is one body component of an agent.
type Part string

const (
	PartWork   Part = "work"
	PartCarry  Part = "carry"
	PartMove   Part = "move"
	PartAttack Part = "attack"
	PartRanged Part = "ranged_attack"
	PartHeal   Part = "heal"
	PartTough  Part = "tough"
	PartClaim  Part = "claim"
)

// PartCost is the energy price of each body part.
var PartCost = map[Part]int{
	PartWork:   100,
	PartCarry:  50,
	PartMove:   50,
	PartAttack: 80,
	PartRanged: 150,
	PartHeal:   250,
	PartTough:  10,
	PartClaim:  600,
}

// CarryPerPart is the energy one carry part can hold.
const CarryPerPart = 50

// KnownPart reports whether p is a body part the engine understands.
func KnownPart(p Part) bool {
	_, ok := PartCost[p]
	return ok
}

// BodyCost sums the energy cost of a body.
func BodyCost(body []Part) int {
	sum := 0
	for _, p := range body {
		sum += PartCost[p]
	}
	return sum
}

// CountParts returns how many parts of kind p the body has.
func CountParts(body []Part, p Part) int {
	n := 0
	for _, b := range body {
		if b == p {
			n++
		}
	}
	return n
}
