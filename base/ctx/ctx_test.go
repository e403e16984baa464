package ctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ctxSuite struct {
	suite.Suite
}

func TestCtx(t *testing.T) {
	suite.Run(t, new(ctxSuite))
}

func (s *ctxSuite) TestWithValue() {
	c := WithValue(Background(), "key", "value")
	s.Equal("value", c.Value("key"))
}

func (s *ctxSuite) TestWithValues() {
	c := WithValues(Background(), map[string]interface{}{
		"a": 1,
		"b": 2,
	})
	s.Equal(1, c.Value("a"))
	s.Equal(2, c.Value("b"))
}

func (s *ctxSuite) TestWithCancel() {
	c, cancel := WithCancel(Background())
	select {
	case <-c.Done():
		s.Fail("should not be done yet")
	default:
	}
	cancel()
	select {
	case <-c.Done():
	default:
		s.Fail("should be done after cancel")
	}
}

func (s *ctxSuite) TestWithTimeout() {
	c, cancel := WithTimeout(Background(), 10*time.Millisecond)
	defer cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		s.Fail("should time out")
	}
}
