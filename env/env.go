// Package env implements the vectorized trading simulation engine. An
// Environment owns a batched state vector (one row per trajectory),
// composes the configured stochastic sub-models into a single step
// transition and exposes the reset/step contract RL training loops
// consume.
package env

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"market-sim-go/info"
	"market-sim-go/process"
	"market-sim-go/reward"
)

// State vector column layout. Columns 3+ hold the configured processes'
// states in registry order.
const (
	CashIndex      = 0
	InventoryIndex = 1
	TimeIndex      = 2
	PriceIndex     = 3
)

const (
	bidIndex = 0
	askIndex = 1
)

// Registry slot names, in the fixed concatenation order.
const (
	processMidprice        = "midprice"
	processArrival         = "arrival"
	processFillProbability = "fill_probability"
	processPriceImpact     = "price_impact"
)

// Defaults applied when the corresponding Params field is zero.
const (
	defaultTerminalTime    = 1.0
	defaultNSteps          = 200
	defaultMaxInventory    = 10000
	defaultNumTrajectories = 1
)

// InitialInventory is either a fixed integer applied to every
// trajectory or a uniform integer draw from [Low, High).
type InitialInventory struct {
	fixed  int
	low    int
	high   int
	random bool
}

// FixedInventory starts every trajectory at n units.
func FixedInventory(n int) InitialInventory {
	return InitialInventory{fixed: n}
}

// UniformInventory draws each trajectory's starting inventory uniformly
// from the integer range [low, high).
func UniformInventory(low, high int) InitialInventory {
	return InitialInventory{low: low, high: high, random: true}
}

func (inv InitialInventory) validate() error {
	if inv.random && inv.low >= inv.high {
		return fmt.Errorf("initial inventory range [%d, %d) is empty", inv.low, inv.high)
	}
	return nil
}

// Params configures an Environment. Zero-valued optional fields take
// the documented defaults; maxima default from the relevant process's
// bounds.
type Params struct {
	TerminalTime float64
	NSteps       int
	Reward       reward.Function

	Midprice        process.MidpriceModel
	Arrival         process.ArrivalModel
	FillProbability process.FillProbabilityModel
	PriceImpact     process.PriceImpactModel

	ActionType       ActionType
	InitialCash      float64
	InitialInventory InitialInventory
	MaxInventory     float64
	MaxCash          float64
	MaxStockPrice    float64
	MaxDepth         float64
	MaxSpeed         float64
	HalfSpread       float64

	// StartTime is the fixed episode start time; StartTimeFn, when set,
	// is invoked per reset instead. The resolved value must lie in
	// [0, TerminalTime) and is snapped to the step grid.
	StartTime   float64
	StartTimeFn func() float64

	InfoCalculator  info.Calculator
	Seed            int64
	NumTrajectories int
	Logger          *zap.Logger
}

type registryEntry struct {
	name  string
	model process.Model
	// [low, high) column range in the state vector, cached at
	// construction.
	low  int
	high int
}

// Environment is the batched simulation engine. It is not safe for
// concurrent use; parallelism comes from the trajectory dimension.
type Environment struct {
	terminalTime float64
	nSteps       int
	stepSize     float64

	rewardFn    reward.Function
	midprice    process.MidpriceModel
	arrival     process.ArrivalModel
	fillProb    process.FillProbabilityModel
	priceImpact process.PriceImpactModel
	processes   []registryEntry

	actionType ActionType
	updater    agentUpdater

	initialCash      float64
	initialInventory InitialInventory
	maxInventory     float64
	maxCash          float64
	maxStockPrice    float64
	maxDepth         float64
	maxSpeed         float64
	halfSpread       float64

	startTime   float64
	startTimeFn func() float64

	infoCalc info.Calculator
	logger   *zap.Logger

	rng             *rand.Rand
	seed            int64
	numTrajectories int

	state    [][]float64
	obsSpace Space
	actSpace Space
}

// New validates the composition and builds an engine with a fresh
// initial state. The state column layout and both spaces are fixed here
// for the instance's lifetime.
func New(p Params) (*Environment, error) {
	e := &Environment{
		terminalTime:     p.TerminalTime,
		nSteps:           p.NSteps,
		rewardFn:         p.Reward,
		midprice:         p.Midprice,
		arrival:          p.Arrival,
		fillProb:         p.FillProbability,
		priceImpact:      p.PriceImpact,
		actionType:       p.ActionType,
		initialCash:      p.InitialCash,
		initialInventory: p.InitialInventory,
		maxInventory:     p.MaxInventory,
		maxCash:          p.MaxCash,
		maxStockPrice:    p.MaxStockPrice,
		maxDepth:         p.MaxDepth,
		maxSpeed:         p.MaxSpeed,
		halfSpread:       p.HalfSpread,
		startTime:        p.StartTime,
		startTimeFn:      p.StartTimeFn,
		infoCalc:         p.InfoCalculator,
		logger:           p.Logger,
		numTrajectories:  p.NumTrajectories,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.terminalTime == 0 {
		e.terminalTime = defaultTerminalTime
	}
	if e.nSteps == 0 {
		e.nSteps = defaultNSteps
	}
	if e.numTrajectories == 0 {
		e.numTrajectories = defaultNumTrajectories
	}
	if e.maxInventory == 0 {
		e.maxInventory = defaultMaxInventory
	}
	if e.terminalTime <= 0 {
		return nil, fmt.Errorf("terminal time must be > 0, got %v", e.terminalTime)
	}
	if e.nSteps <= 0 {
		return nil, fmt.Errorf("n steps must be > 0, got %d", e.nSteps)
	}
	if e.numTrajectories < 1 {
		return nil, fmt.Errorf("num trajectories must be >= 1, got %d", e.numTrajectories)
	}
	e.stepSize = e.terminalTime / float64(e.nSteps)

	if e.rewardFn == nil {
		e.rewardFn = reward.NewPnL()
	}
	if e.midprice == nil {
		e.midprice = process.NewBrownianMotionMidprice(process.BrownianMotionConfig{
			Volatility:      1,
			InitialPrice:    100,
			TerminalTime:    e.terminalTime,
			StepSize:        e.stepSize,
			NumTrajectories: e.numTrajectories,
		})
	}
	if e.actionType == "" {
		e.actionType = ActionLimit
	}

	if err := e.checkRequiredProcesses(); err != nil {
		return nil, err
	}
	updater, err := newAgentUpdater(e.actionType)
	if err != nil {
		return nil, err
	}
	e.updater = updater
	if err := e.initialInventory.validate(); err != nil {
		return nil, err
	}

	e.processes = e.buildRegistry()
	e.syncProcessShapes()

	if e.maxStockPrice == 0 {
		e.maxStockPrice = e.midprice.MaxStockPrice()
	}
	if e.maxCash == 0 {
		e.maxCash = float64(e.nSteps) * e.maxStockPrice
	}
	if e.maxDepth == 0 && e.fillProb != nil {
		e.maxDepth = e.fillProb.MaxDepth()
	}
	if e.maxSpeed == 0 && e.priceImpact != nil {
		e.maxSpeed = e.priceImpact.MaxSpeed()
	}
	if (e.actionType == ActionLimit || e.actionType == ActionLimitAndMarket) && e.maxDepth <= 0 {
		return nil, errors.New("limit order action types require a usable max depth")
	}

	e.seed = p.Seed
	if e.seed == 0 {
		e.seed = time.Now().UnixNano()
	}
	e.Seed(e.seed)

	if sizer, ok := e.rewardFn.(reward.StepSizer); ok {
		sizer.SetStepSize(e.stepSize)
	}

	e.obsSpace = e.observationSpace()
	e.actSpace = e.actionSpace()

	e.state, err = e.initialState()
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) checkRequiredProcesses() error {
	required := e.actionType.requiredProcesses()
	if required == nil {
		return fmt.Errorf("unsupported action type %q", e.actionType)
	}
	for _, name := range required {
		var present bool
		switch name {
		case processArrival:
			present = e.arrival != nil
		case processFillProbability:
			present = e.fillProb != nil
		case processPriceImpact:
			present = e.priceImpact != nil
		}
		if !present {
			return fmt.Errorf("action type %q requires a %s model", e.actionType, name)
		}
	}
	return nil
}

// buildRegistry lists the configured processes in the fixed
// concatenation order and caches each one's state slice bounds.
func (e *Environment) buildRegistry() []registryEntry {
	type slot struct {
		name  string
		model process.Model
	}
	slots := []slot{
		{processMidprice, e.midprice},
		{processArrival, e.arrival},
		{processFillProbability, e.fillProb},
		{processPriceImpact, e.priceImpact},
	}
	entries := make([]registryEntry, 0, len(slots))
	col := PriceIndex
	for _, s := range slots {
		if s.model == nil {
			continue
		}
		width := s.model.StateWidth()
		entries = append(entries, registryEntry{
			name:  s.name,
			model: s.model,
			low:   col,
			high:  col + width,
		})
		col += width
	}
	return entries
}

// syncProcessShapes aligns every process with the engine's step size
// and trajectory count, logging a notice per adjusted component.
func (e *Environment) syncProcessShapes() {
	for _, entry := range e.processes {
		if entry.model.StepSize() != e.stepSize {
			e.logger.Info("setting process step size",
				zap.String("process", entry.name),
				zap.Float64("step_size", e.stepSize))
			entry.model.SetStepSize(e.stepSize)
		}
		if entry.model.NumTrajectories() != e.numTrajectories {
			e.logger.Info("setting process trajectory count",
				zap.String("process", entry.name),
				zap.Int("num_trajectories", e.numTrajectories))
			entry.model.SetNumTrajectories(e.numTrajectories)
		}
	}
}

// Seed seeds the engine's generator and hands each configured process a
// derived seed (base + positional offset) so process randomness stays
// reproducible and decorrelated from engine randomness.
func (e *Environment) Seed(seed int64) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
	for i, entry := range e.processes {
		entry.model.Seed(seed + int64(i) + 1)
	}
}

// Reset starts a fresh episode: every process re-draws its state, the
// reward function is reset with the rebuilt initial state, and a copy
// of that state is returned.
func (e *Environment) Reset() ([][]float64, error) {
	for _, entry := range e.processes {
		entry.model.Reset()
	}
	state, err := e.initialState()
	if err != nil {
		return nil, err
	}
	e.state = state
	e.rewardFn.Reset(cloneMatrix(e.state))
	if e.infoCalc != nil {
		e.infoCalc.Reset()
	}
	return cloneMatrix(e.state), nil
}

// initialState builds the batched state vector from initial cash,
// per-trajectory initial inventories, the resolved start time and every
// process's initial state.
func (e *Environment) initialState() ([][]float64, error) {
	startTime, err := e.resolveStartTime()
	if err != nil {
		return nil, err
	}
	inventories := e.initialInventories()
	width := e.stateWidth()
	state := make([][]float64, e.numTrajectories)
	for i := range state {
		row := make([]float64, 3, width)
		row[CashIndex] = e.initialCash
		row[InventoryIndex] = inventories[i]
		row[TimeIndex] = startTime
		state[i] = row
	}
	for _, entry := range e.processes {
		initial := entry.model.InitialState()
		for i := range state {
			state[i] = append(state[i], initial[i]...)
		}
	}
	return state, nil
}

// resolveStartTime evaluates the start-time policy and snaps the result
// to the nearest step boundary. A value outside [0, terminalTime) is a
// precondition violation.
func (e *Environment) resolveStartTime() (float64, error) {
	t := e.startTime
	if e.startTimeFn != nil {
		t = e.startTimeFn()
	}
	if t < 0 || t >= e.terminalTime {
		return 0, fmt.Errorf("start time %v is not within [0, %v)", t, e.terminalTime)
	}
	return math.Round(t/e.stepSize) * e.stepSize, nil
}

func (e *Environment) initialInventories() []float64 {
	out := make([]float64, e.numTrajectories)
	for i := range out {
		if e.initialInventory.random {
			span := e.initialInventory.high - e.initialInventory.low
			out[i] = float64(e.initialInventory.low + e.rng.Intn(span))
		} else {
			out[i] = float64(e.initialInventory.fixed)
		}
	}
	return out
}

func (e *Environment) stateWidth() int {
	if len(e.processes) == 0 {
		return 3
	}
	return e.processes[len(e.processes)-1].high
}

// ObservationSpace returns the cached observation bounds. The bound
// layout exactly tracks the state vector columns.
func (e *Environment) ObservationSpace() Space { return e.obsSpace }

// ActionSpace returns the cached regime-specific action bounds.
func (e *Environment) ActionSpace() Space { return e.actSpace }

// State returns a defensive copy of the live state vector.
func (e *Environment) State() [][]float64 { return cloneMatrix(e.state) }

func (e *Environment) TerminalTime() float64 { return e.terminalTime }
func (e *Environment) NSteps() int           { return e.nSteps }
func (e *Environment) StepSize() float64     { return e.stepSize }
func (e *Environment) NumTrajectories() int  { return e.numTrajectories }
func (e *Environment) MaxInventory() float64 { return e.maxInventory }
func (e *Environment) MaxCash() float64      { return e.maxCash }
func (e *Environment) ActionType() ActionType { return e.actionType }

// SetStepSize propagates a new step size to every configured process
// and to the reward function when it tracks step size. Spaces and the
// cached layout are unaffected.
func (e *Environment) SetStepSize(stepSize float64) {
	e.stepSize = stepSize
	for _, entry := range e.processes {
		if entry.model.StepSize() != stepSize {
			e.logger.Info("setting process step size",
				zap.String("process", entry.name),
				zap.Float64("step_size", stepSize))
			entry.model.SetStepSize(stepSize)
		}
	}
	if sizer, ok := e.rewardFn.(reward.StepSizer); ok {
		e.logger.Info("setting reward function step size",
			zap.Float64("step_size", stepSize))
		sizer.SetStepSize(stepSize)
	}
}

// SetNumTrajectories propagates a new batch size to every configured
// process. The live state vector keeps its old shape until the next
// Reset.
func (e *Environment) SetNumTrajectories(n int) {
	e.numTrajectories = n
	for _, entry := range e.processes {
		if entry.model.NumTrajectories() != n {
			e.logger.Info("setting process trajectory count",
				zap.String("process", entry.name),
				zap.Int("num_trajectories", n))
			entry.model.SetNumTrajectories(n)
		}
	}
}

// midprices is the current midprice column, read before the step's
// market update so fills are priced off the pre-step midprice.
func (e *Environment) midprices() []float64 {
	current := e.midprice.CurrentState()
	out := make([]float64, len(current))
	for i := range current {
		out[i] = current[i][0]
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = make([]float64, len(m[i]))
		copy(out[i], m[i])
	}
	return out
}
