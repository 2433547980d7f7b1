package behaviour

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/roach88/rgraph/internal/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAt builds a behaviour and forces it into the given state without
// running any transitions.
func newAt(state State) (*Behaviour[uuid.UUID], *scriptedTransitions) {
	tr := &scriptedTransitions{}
	b := &Behaviour[uuid.UUID]{
		ty:          tapType,
		inst:        newThing(1),
		validator:   NewPropertyValidator[uuid.UUID](),
		transitions: tr,
	}
	b.setState(state)
	return b, tr
}

func TestTransition_Table(t *testing.T) {
	all := []State{StateCreated, StateValid, StateReady, StateConnected}
	allowed := map[[2]State]bool{
		{StateCreated, StateValid}:     true,
		{StateCreated, StateReady}:     true,
		{StateCreated, StateConnected}: true,
		{StateValid, StateReady}:       true,
		{StateValid, StateConnected}:   true,
		{StateReady, StateConnected}:   true,
		{StateConnected, StateReady}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				b, _ := newAt(from)
				err := b.Transition(to)
				if allowed[[2]State{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, b.State())
					return
				}
				require.Error(t, err)
				assert.True(t, IsInvalidTransition(err))
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, b.State(), "rejected transition has no effect")
			})
		}
	}
}

func TestTransition_ChainRunsEachStepOnce(t *testing.T) {
	b, tr := newAt(StateCreated)
	require.NoError(t, b.Transition(StateConnected))
	assert.Equal(t, 1, tr.init)
	assert.Equal(t, 1, tr.connect)
	assert.True(t, b.Instance().BehavesAs(tapType))

	require.NoError(t, b.Transition(StateReady))
	assert.Equal(t, 1, tr.disconnect)
	assert.False(t, b.Instance().BehavesAs(tapType))
}

func TestTransition_FailuresLeaveLastGoodState(t *testing.T) {
	tests := []struct {
		name      string
		failOn    string
		validator Validator[uuid.UUID]
		kind      TransitionErrorKind
		sentinel  error
		state     State
	}{
		{name: "validate", validator: failingValidator(), kind: KindBehaviourInvalid, sentinel: ErrBehaviourInvalid, state: StateCreated},
		{name: "init", failOn: "init", kind: KindInitializationFailed, sentinel: ErrInitializationFailed, state: StateValid},
		{name: "connect", failOn: "connect", kind: KindConnectFailed, sentinel: ErrConnectFailed, state: StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, tr := newAt(StateCreated)
			tr.failOn = map[string]bool{tt.failOn: true}
			if tt.validator != nil {
				b.validator = tt.validator
			}

			err := b.Transition(StateConnected)
			require.Error(t, err)
			assert.Equal(t, tt.kind, TransitionKind(err))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.state, b.State())
			assert.False(t, b.Instance().BehavesAs(tapType))
		})
	}
}

func TestTransition_DisconnectFailureKeepsConnected(t *testing.T) {
	b, tr := newAt(StateCreated)
	require.NoError(t, b.Connect())
	tr.failOn = map[string]bool{"disconnect": true}

	err := b.Disconnect()
	require.Error(t, err)
	assert.Equal(t, KindDisconnectFailed, TransitionKind(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateConnected, b.State())
	assert.True(t, b.Instance().BehavesAs(tapType))
}

func TestTransition_Monotonic(t *testing.T) {
	b, _ := newAt(StateCreated)
	visited := []State{b.State()}
	steps := []State{StateValid, StateValid, StateCreated, StateReady, StateConnected, StateValid, StateReady, StateConnected, StateConnected}
	for _, s := range steps {
		_ = b.Transition(s)
		visited = append(visited, b.State())
	}

	for i := 1; i < len(visited); i++ {
		prev, cur := visited[i-1], visited[i]
		if cur < prev {
			assert.Equal(t, StateConnected, prev)
			assert.Equal(t, StateReady, cur)
		}
	}
}

func TestReconnect(t *testing.T) {
	b, tr := newAt(StateCreated)
	require.NoError(t, b.Connect())
	require.NoError(t, b.Reconnect())
	assert.Equal(t, StateConnected, b.State())
	assert.Equal(t, 2, tr.connect)
	assert.Equal(t, 1, tr.disconnect)

	require.NoError(t, b.Disconnect())
	err := b.Reconnect()
	assert.True(t, IsInvalidTransition(err), "reconnect requires Connected")
	assert.Equal(t, StateReady, b.State())
}

func TestNew_ConnectsImmediately(t *testing.T) {
	tr := &scriptedTransitions{}
	inst := newThing(1)
	b, err := New[uuid.UUID](inst, tapType, nil, tr)
	require.NoError(t, err)
	assert.Equal(t, StateConnected, b.State())
	assert.Equal(t, tapType, b.Type())
	assert.True(t, inst.BehavesAs(tapType))
}

func TestNew_RollsBackPartialConnect(t *testing.T) {
	inst := newThing(1)
	obs := reactive.NewPropertyObservers(tapType.UUID(), "x")
	tr := &scriptedTransitions{
		failOn: map[string]bool{"connect": true},
		onConnect: func(inst reactive.Instance[uuid.UUID]) {
			obs.Observe(inst, "in", func(any) {})
		},
	}
	wrapped := TransitionsFuncs[uuid.UUID]{
		InitFn:       tr.Init,
		ConnectFn:    tr.Connect,
		DisconnectFn: func(reactive.Instance[uuid.UUID]) error { obs.RemoveAll(); return nil },
	}

	b, err := New[uuid.UUID](inst, tapType, nil, wrapped)
	assert.Nil(t, b)
	require.Error(t, err)
	assert.Equal(t, KindConnectFailed, TransitionKind(err))
	assert.Equal(t, 0, inst.ObserverCount("in"), "half-wired observers are removed")
	assert.False(t, inst.BehavesAs(tapType))
}

func TestClose(t *testing.T) {
	b, tr := newAt(StateCreated)
	require.NoError(t, b.Connect())

	require.NoError(t, b.Close())
	assert.Equal(t, StateReady, b.State())
	assert.True(t, b.Closed())
	assert.Equal(t, 1, tr.disconnect)

	require.NoError(t, b.Close())
	assert.Equal(t, 1, tr.disconnect, "close is idempotent")

	assert.True(t, IsInvalidTransition(b.Connect()), "closed behaviours reject transitions")
}

func TestClose_NotConnected(t *testing.T) {
	b, tr := newAt(StateReady)
	require.NoError(t, b.Close())
	assert.Equal(t, 0, tr.disconnect)
}

func TestState_StringAndParse(t *testing.T) {
	for _, s := range []State{StateCreated, StateValid, StateReady, StateConnected} {
		parsed, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseState("Gone")
	assert.Error(t, err)
	assert.Equal(t, "State(9)", State(9).String())
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{Kind: KindConnectFailed, Ty: tapType, From: StateReady, To: StateConnected, Err: errBoom}
	assert.Equal(t, "BEHAVIOUR_CONNECT_FAILED: test::tap Ready -> Connected: boom", err.Error())
	assert.True(t, errors.Is(err, errBoom))
	assert.False(t, errors.Is(err, ErrDisconnectFailed))
}
