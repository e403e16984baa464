package goroutine

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type recoverableGoSuite struct {
	suite.Suite
}

func TestRecoverableGo(t *testing.T) {
	suite.Run(t, new(recoverableGoSuite))
}

func (s *recoverableGoSuite) TestNoPanic() {
	ran := make(chan struct{})
	ch := RecoverableGo(func() { close(ran) })
	<-ran
	ev, ok := <-ch
	s.Nil(ev)
	s.False(ok)
}

func (s *recoverableGoSuite) TestPanicIsRecovered() {
	ch := RecoverableGo(func() { panic("boom") })
	ev := <-ch
	s.NotNil(ev)
	s.Equal("boom", ev.Panic)
	s.NotEmpty(ev.Stack)
}

func (s *recoverableGoSuite) TestHooks() {
	var order []string
	done := make(chan struct{})
	RecoverableGo(
		func() { order = append(order, "run"); panic("x") },
		WithBeforeStart(func() { order = append(order, "before") }),
		WithAfterRecovered(func(p interface{}, stack []byte) {
			order = append(order, "recovered")
			close(done)
		}),
	)
	<-done
	s.Equal([]string{"before", "run", "recovered"}, order)
}
