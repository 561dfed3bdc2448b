package mapreduce_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/teca-go/teca/mapreduce"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/rankio/rankiomock"
)

// TestNonRootRankSendsEncodedAccumulator drives a Stage as rank 1 of a
// 2-rank world against a mocked rankio.Communicator, verifying it
// performs exactly one Send to rank 0 and never calls Recv (rank 1 is
// a leaf in the binary-tree reduction at step 1) or Barrier.
func TestNonRootRankSendsEncodedAccumulator(t *testing.T) {
	ctrl := gomock.NewController(t)
	comm := rankiomock.NewCommunicator(ctrl)
	comm.EXPECT().Rank().Return(1).AnyTimes()
	comm.EXPECT().Size().Return(2).AnyTimes()
	comm.EXPECT().Send(gomock.Any(), 0, gomock.Any()).Return(nil).Times(1)

	src := newStepSource(5) // steps 0..4, rank 1 owns [2,4]: 2+3+4=9
	stage := mapreduce.New(sumReducer(), comm)
	stage.SetInputConnection(0, src, 0)

	ds, err := stage.Execute(context.Background(), 0, nil, metadata.New())
	require.NoError(t, err)
	require.Equal(t, mesh.Empty{}, ds)
}
