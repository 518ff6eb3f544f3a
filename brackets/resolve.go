package brackets

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/courtflow/scheduler/models"
)

var (
	ErrNotEnoughUnits     = errors.New("not enough units to resolve a bracket (minimum 2)")
	ErrAwardPhase         = errors.New("award phases carry no encounters and cannot be resolved")
	ErrUnsupportedType    = errors.New("unsupported phase type for bracket resolution")
	ErrInvalidPoolCount   = errors.New("pool count must be at least 1")
	ErrMissingBracketSpec = errors.New("flexible template has no bracket spec")
)

// PhaseSpec is the shape-relevant subset of a phase handed to the resolver.
// For a flexible template it is derived at runtime from the generate-bracket
// spec instead of a stored phase row.
type PhaseSpec struct {
	Type               models.PhaseType
	PoolCount          int
	Seeding            models.SeedingStrategy
	IncludeConsolation bool

	// PlayoffUnitsPerPool > 0 turns a pools phase into a combined
	// pools-plus-playoff resolution: pool play as usual, then a single
	// elimination bracket sized from PlayoffUnitsPerPool * PoolCount.
	PlayoffUnitsPerPool int

	// SwissRounds overrides the default ceil(log2(n)) round count for a
	// swiss phase. Zero means "use the default".
	SwissRounds int
}

// SkeletonEncounter is one entry of a resolved phase skeleton. Unit IDs are
// set where the seeding already determines them (round one, byes); later
// rounds reference their feeder encounters by UID instead.
type SkeletonEncounter struct {
	UID          string
	Round        int
	OrderInRound int
	PoolIndex    *int

	Unit1ID *int
	Unit2ID *int

	SourceEncounter1UID *string
	SourceEncounter2UID *string

	IsBye     bool
	ByeUnitID *int

	// Consolation marks the bronze final of a single elimination bracket.
	Consolation bool
	// LosersBracket marks losers-side encounters of a double elimination.
	LosersBracket bool
}

// Resolution is the derived shape of one phase: bracket arithmetic plus the
// encounter skeleton the expansion step persists.
type Resolution struct {
	BracketSize int
	ByeCount    int
	// RoundCount is the display round count: log2(bracketSize) for single
	// elimination, doubled for double elimination, matches-per-unit for
	// round robin pools.
	RoundCount int
	PoolSizes  []int

	// TotalEncounters counts every encounter the phase can require,
	// including a double elimination's grand-final reset, which is not
	// materialized in Encounters until it is actually needed.
	TotalEncounters int

	Encounters []*SkeletonEncounter
}

// Resolve derives the bracket/pool shape of a phase for the given units.
// unitIDs must be in seed order (seed 1 first); under manual seeding the
// order is taken verbatim from the caller, no algorithmic seeding happens
// here. Fewer than two units is a fatal, non-retryable resolution error.
func Resolve(spec PhaseSpec, unitIDs []int) (*Resolution, error) {
	if len(unitIDs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughUnits, len(unitIDs))
	}

	switch spec.Type {
	case models.PhaseSingleElimination, models.PhaseDraw:
		// A draw sheet is a knockout bracket; both resolve identically.
		return resolveSingleElimination(spec, unitIDs)
	case models.PhaseDoubleElimination:
		return resolveDoubleElimination(unitIDs)
	case models.PhaseRoundRobin:
		return resolveRoundRobin(unitIDs)
	case models.PhasePools:
		return resolvePools(spec, unitIDs)
	case models.PhaseBracketRound:
		return resolveBracketRound(unitIDs)
	case models.PhaseSwiss:
		return resolveSwiss(spec, unitIDs)
	case models.PhaseAward:
		return nil, ErrAwardPhase
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, spec.Type)
	}
}

// ResolveFlexible derives the phase shape of a flexible template at runtime
// from the incoming unit count.
func ResolveFlexible(gb *models.GenerateBracketSpec, unitIDs []int) (*Resolution, error) {
	if gb == nil {
		return nil, ErrMissingBracketSpec
	}
	return Resolve(PhaseSpec{
		Type:               gb.Type,
		Seeding:            models.SeedingSequential,
		IncludeConsolation: gb.Consolation,
	}, unitIDs)
}

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// seedOrder returns the classic bracket slot ordering for a full bracket of
// the given size, so that seeds 1 and 2 can only meet in the final: for size
// 8 the order is 1,8,4,5,2,7,3,6. Seeds greater than the real unit count are
// byes, which therefore fall to the top seeds first.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		complement := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, complement-s)
		}
		order = next
	}
	return order
}

type bracketNode struct {
	unitID    *int
	sourceUID *string
}

func resolveSingleElimination(spec PhaseSpec, unitIDs []int) (*Resolution, error) {
	n := len(unitIDs)
	size := nextPowerOfTwo(n)
	rounds := int(math.Round(math.Log2(float64(size))))
	byes := size - n

	slots := seedOrder(size)
	current := make([]bracketNode, size)
	for i, seed := range slots {
		if seed <= n {
			id := unitIDs[seed-1]
			current[i] = bracketNode{unitID: &id}
		}
	}

	encounters := make([]*SkeletonEncounter, 0, size-1)
	var semifinalUIDs []string

	for r := 1; r <= rounds; r++ {
		next := make([]bracketNode, 0, len(current)/2)
		for i := 0; i < len(current); i += 2 {
			a, b := current[i], current[i+1]
			uid := fmt.Sprintf("R%dM%d", r, i/2+1)
			enc := &SkeletonEncounter{UID: uid, Round: r, OrderInRound: i/2 + 1}

			switch {
			case a.unitID != nil && b.unitID == nil && b.sourceUID == nil:
				enc.IsBye = true
				enc.ByeUnitID = a.unitID
				enc.Unit1ID = a.unitID
				next = append(next, bracketNode{unitID: a.unitID})
			case b.unitID != nil && a.unitID == nil && a.sourceUID == nil:
				enc.IsBye = true
				enc.ByeUnitID = b.unitID
				enc.Unit1ID = b.unitID
				next = append(next, bracketNode{unitID: b.unitID})
			default:
				enc.Unit1ID = a.unitID
				enc.Unit2ID = b.unitID
				enc.SourceEncounter1UID = a.sourceUID
				enc.SourceEncounter2UID = b.sourceUID
				next = append(next, bracketNode{sourceUID: &uid})
			}

			if r == rounds-1 {
				semifinalUIDs = append(semifinalUIDs, uid)
			}
			encounters = append(encounters, enc)
		}
		current = next
	}

	total := size - 1

	// Bronze final between the semifinal losers. Only meaningful once the
	// bracket actually has semifinals.
	if spec.IncludeConsolation && size >= 4 {
		enc := &SkeletonEncounter{
			UID:                 "CONS",
			Round:               rounds,
			OrderInRound:        2,
			Consolation:         true,
			SourceEncounter1UID: &semifinalUIDs[0],
			SourceEncounter2UID: &semifinalUIDs[1],
		}
		encounters = append(encounters, enc)
		total++
	}

	return &Resolution{
		BracketSize:     size,
		ByeCount:        byes,
		RoundCount:      rounds,
		TotalEncounters: total,
		Encounters:      encounters,
	}, nil
}

func resolveDoubleElimination(unitIDs []int) (*Resolution, error) {
	winners, err := resolveSingleElimination(PhaseSpec{}, unitIDs)
	if err != nil {
		return nil, err
	}
	size := winners.BracketSize
	k := winners.RoundCount

	encounters := winners.Encounters

	// Losers bracket: per winners round r < k, a minor round (losers play
	// each other) then a major round where that winners round's losers drop
	// in. size-2 encounters in total.
	losersRound := 0
	for j := 1; j < k; j++ {
		matches := size >> uint(j+1)
		for half := 0; half < 2; half++ {
			losersRound++
			for m := 1; m <= matches; m++ {
				encounters = append(encounters, &SkeletonEncounter{
					UID:           fmt.Sprintf("L%dM%d", losersRound, m),
					Round:         k + losersRound,
					OrderInRound:  m,
					LosersBracket: true,
				})
			}
		}
	}

	// Grand final. The reset encounter (losers-bracket winner takes the
	// first grand final) is reserved in the count but materialized by match
	// progression only if it is needed.
	finalUID := fmt.Sprintf("R%dM1", k)
	encounters = append(encounters, &SkeletonEncounter{
		UID:                 "GF1",
		Round:               2 * k,
		OrderInRound:        1,
		SourceEncounter1UID: &finalUID,
	})

	return &Resolution{
		BracketSize:     size,
		ByeCount:        winners.ByeCount,
		RoundCount:      2 * k,
		TotalEncounters: 2*(size-1) + 1,
		Encounters:      encounters,
	}, nil
}

// circleRounds generates round robin pairings with the circle method: one
// unit stays fixed while the rest rotate. An odd field gets a rotating
// sit-out instead of a dummy opponent.
func circleRounds(unitIDs []int) [][][2]int {
	players := append([]int(nil), unitIDs...)
	const sitOut = 0
	if len(players)%2 != 0 {
		players = append(players, sitOut)
	}
	n := len(players)
	rounds := make([][][2]int, 0, n-1)

	for r := 0; r < n-1; r++ {
		var pairs [][2]int
		for i := 0; i < n/2; i++ {
			p1, p2 := players[i], players[n-1-i]
			if p1 != sitOut && p2 != sitOut {
				pairs = append(pairs, [2]int{p1, p2})
			}
		}
		rounds = append(rounds, pairs)
		// Rotate everyone but the first player.
		players = append(players[:1], append([]int{players[n-1]}, players[1:n-1]...)...)
	}
	return rounds
}

func roundRobinEncounters(unitIDs []int, poolIndex *int, uidPrefix string) []*SkeletonEncounter {
	var encounters []*SkeletonEncounter
	for r, pairs := range circleRounds(unitIDs) {
		for m, pair := range pairs {
			u1, u2 := pair[0], pair[1]
			encounters = append(encounters, &SkeletonEncounter{
				UID:          fmt.Sprintf("%sRR%dM%d", uidPrefix, r+1, m+1),
				Round:        r + 1,
				OrderInRound: m + 1,
				PoolIndex:    poolIndex,
				Unit1ID:      &u1,
				Unit2ID:      &u2,
			})
		}
	}
	return encounters
}

func resolveRoundRobin(unitIDs []int) (*Resolution, error) {
	n := len(unitIDs)
	return &Resolution{
		RoundCount:      n - 1,
		PoolSizes:       []int{n},
		TotalEncounters: n * (n - 1) / 2,
		Encounters:      roundRobinEncounters(unitIDs, nil, ""),
	}, nil
}

// partitionPools splits seed-ordered units into poolCount pools. Sequential
// (and manual) seeding fills pools as contiguous chunks of ceil(n/poolCount);
// cross-pool seeding deals seeds round-robin across pools so pool strength
// stays even.
func partitionPools(unitIDs []int, poolCount int, seeding models.SeedingStrategy) [][]int {
	pools := make([][]int, poolCount)
	if seeding == models.SeedingCrossPool {
		for i, id := range unitIDs {
			p := i % poolCount
			pools[p] = append(pools[p], id)
		}
		return pools
	}
	chunk := (len(unitIDs) + poolCount - 1) / poolCount
	for i, id := range unitIDs {
		p := i / chunk
		if p >= poolCount {
			p = poolCount - 1
		}
		pools[p] = append(pools[p], id)
	}
	return pools
}

func resolvePools(spec PhaseSpec, unitIDs []int) (*Resolution, error) {
	poolCount := spec.PoolCount
	if poolCount < 1 {
		return nil, ErrInvalidPoolCount
	}

	pools := partitionPools(unitIDs, poolCount, spec.Seeding)

	var encounters []*SkeletonEncounter
	poolSizes := make([]int, poolCount)
	total := 0
	maxRounds := 0
	for p, pool := range pools {
		poolSizes[p] = len(pool)
		if len(pool) < 2 {
			continue
		}
		idx := p
		encounters = append(encounters, roundRobinEncounters(pool, &idx, fmt.Sprintf("P%d", p+1))...)
		total += len(pool) * (len(pool) - 1) / 2
		if len(pool)-1 > maxRounds {
			maxRounds = len(pool) - 1
		}
	}

	res := &Resolution{
		RoundCount:      maxRounds,
		PoolSizes:       poolSizes,
		TotalEncounters: total,
	}

	// Combined pools + playoff: a single elimination bracket sized from the
	// advancing units. The advancing unit identities are unknown until pool
	// play finishes, so the playoff skeleton carries empty slots.
	if spec.PlayoffUnitsPerPool > 0 {
		advancing := spec.PlayoffUnitsPerPool * poolCount
		size := nextPowerOfTwo(advancing)
		rounds := int(math.Round(math.Log2(float64(size))))
		for r := 1; r <= rounds; r++ {
			matches := size >> uint(r)
			for m := 1; m <= matches; m++ {
				encounters = append(encounters, &SkeletonEncounter{
					UID:          fmt.Sprintf("PO_R%dM%d", r, m),
					Round:        maxRounds + r,
					OrderInRound: m,
				})
			}
		}
		res.BracketSize = size
		res.ByeCount = size - advancing
		res.RoundCount = maxRounds + rounds
		res.TotalEncounters += size - 1
	}

	res.Encounters = encounters
	return res, nil
}

// resolveBracketRound materializes a single knockout round under sequential
// pairing: slot i meets slot i+half.
func resolveBracketRound(unitIDs []int) (*Resolution, error) {
	n := len(unitIDs)
	half := n / 2
	encounters := make([]*SkeletonEncounter, 0, half)
	for i := 0; i < half; i++ {
		u1, u2 := unitIDs[i], unitIDs[i+half]
		encounters = append(encounters, &SkeletonEncounter{
			UID:          fmt.Sprintf("BR1M%d", i+1),
			Round:        1,
			OrderInRound: i + 1,
			Unit1ID:      &u1,
			Unit2ID:      &u2,
		})
	}
	return &Resolution{
		BracketSize:     n,
		RoundCount:      1,
		TotalEncounters: half,
		Encounters:      encounters,
	}, nil
}

// resolveSwiss materializes round one only (top half against bottom half);
// later rounds are paired externally from standings as results come in.
// TotalEncounters reports the full-capacity count across all rounds.
func resolveSwiss(spec PhaseSpec, unitIDs []int) (*Resolution, error) {
	n := len(unitIDs)
	rounds := spec.SwissRounds
	if rounds <= 0 {
		rounds = int(math.Ceil(math.Log2(float64(n))))
	}

	half := n / 2
	encounters := make([]*SkeletonEncounter, 0, half)
	for i := 0; i < half; i++ {
		u1, u2 := unitIDs[i], unitIDs[i+half]
		encounters = append(encounters, &SkeletonEncounter{
			UID:          fmt.Sprintf("SW1M%d", i+1),
			Round:        1,
			OrderInRound: i + 1,
			Unit1ID:      &u1,
			Unit2ID:      &u2,
		})
	}

	return &Resolution{
		RoundCount:      rounds,
		TotalEncounters: rounds * half,
		Encounters:      encounters,
	}, nil
}

// SortSkeleton orders encounters by round, then order within the round.
func SortSkeleton(encounters []*SkeletonEncounter) {
	sort.SliceStable(encounters, func(i, j int) bool {
		if encounters[i].Round != encounters[j].Round {
			return encounters[i].Round < encounters[j].Round
		}
		return encounters[i].OrderInRound < encounters[j].OrderInRound
	})
}
