package opportunities

import "context"

// SetBeforeDelete installs a hook that runs after Delete's applicant check
// and before its write.
func (s *Service) SetBeforeDelete(fn func(ctx context.Context)) {
	s.beforeDelete = fn
}
