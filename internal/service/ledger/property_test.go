package ledger

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsreu/hotel-premier/internal/common/errors"
	"github.com/romsreu/hotel-premier/internal/models"
)

// 随机拼接序列后，台账始终满足不变量，且与逐日模型一致
func TestCloseAndOpen_RandomSequences(t *testing.T) {
	const horizon = 60

	states := []models.RoomState{
		models.RoomStateAvailable,
		models.RoomStateReserved,
		models.RoomStateOccupied,
		models.RoomStateMaintenance,
		models.RoomStateOutOfOrder,
	}

	for _, seed := range []int64{1, 7, 42, 2024} {
		rng := rand.New(rand.NewSource(seed))
		l, db := newTestLedger(t)
		ctx := context.Background()
		bootstrap(t, l, db, 101)

		model := make([]models.RoomState, horizon)
		for i := range model {
			model[i] = models.RoomStateAvailable
		}

		for step := 0; step < 40; step++ {
			from := rng.Intn(horizon - 10)
			to := from + rng.Intn(8)
			open := rng.Intn(10) == 0
			state := states[rng.Intn(len(states))]

			var allowed []models.RoomState
			for _, s := range states {
				if rng.Intn(2) == 0 {
					allowed = append(allowed, s)
				}
			}

			m := Mutation{Room: 101, State: state, From: d(from), To: dp(to), Replaceable: InStates(allowed...)}
			last := to
			if open {
				m.To = nil
				last = horizon - 1
			}

			expectOK := true
			for day := from; day <= last; day++ {
				if !containsState(allowed, model[day]) {
					expectOK = false
					break
				}
			}

			_, err := apply(l, db, m)
			if expectOK {
				require.NoError(t, err, "seed %d step %d", seed, step)
				for day := from; day <= last; day++ {
					model[day] = state
				}
			} else {
				require.ErrorIs(t, err, errors.ErrLedgerConflict, "seed %d step %d", seed, step)
			}

			require.NoError(t, l.Audit(ctx, 101), "seed %d step %d", seed, step)
		}

		grid, err := l.StatesInRange(ctx, []int{101}, d(0), d(horizon-1))
		require.NoError(t, err)
		for day := 0; day < horizon; day++ {
			assert.Equal(t, model[day], grid.At(101, d(day)), "seed %d day %d", seed, day)
		}
	}
}
