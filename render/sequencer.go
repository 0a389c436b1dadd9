package render

// StepResult is one element of a frame's step sequence.
type StepResult struct {
	// Surface is the accumulation surface produced by the step, or, when
	// Done is set, the last surface the sequence produced.
	Surface Surface
	// Step is the zero-based index of the pass; 0 is the mandatory pass.
	Step   int
	Offset Offset
	Done   bool
}

// Sequencer produces the accumulation surfaces of one frame, one pass per
// Next call. A Sequencer is bound to a single FrameState; restarting a frame
// means creating a new Sequencer.
type Sequencer struct {
	backend Backend
	plan    Plan
	state   FrameState
	full    Size
	sample  *SamplePool
	accum   *PingPong

	next    int
	current Surface
}

func newSequencer(b Backend, plan Plan, state FrameState, full Size, sample *SamplePool, accum *PingPong) *Sequencer {
	return &Sequencer{
		backend: b,
		plan:    plan,
		state:   state,
		full:    full,
		sample:  sample,
		accum:   accum,
	}
}

// Next runs the next pass and returns the surface it produced. After the
// last pass it returns Done with the final surface, and keeps doing so.
func (s *Sequencer) Next() StepResult {
	switch {
	case s.next == 0:
		s.current = s.baseline()
	case s.next <= len(s.plan.Offsets):
		s.current = s.refine(s.plan.Offsets[s.next-1])
	default:
		return StepResult{Surface: s.current, Step: s.plan.Steps() - 1, Done: true}
	}

	step := s.next
	s.next++
	var off Offset
	if step > 0 {
		off = s.plan.Offsets[step-1]
	}
	return StepResult{Surface: s.current, Step: step, Offset: off}
}

// Remaining returns the number of passes not run yet.
func (s *Sequencer) Remaining() int {
	return max(s.plan.Steps()-s.next, 0)
}

func (s *Sequencer) samplePass(off Offset) Surface {
	smp := s.sample.Acquire()
	w, h := smp.Size()
	s.backend.RenderPass(smp, PassParams{
		ScreenSize: Size{W: w, H: h},
		Offset:     off,
		Repeat:     s.plan.Repeat,
		State:      s.state,
	})
	return smp
}

func (s *Sequencer) baseline() Surface {
	smp := s.samplePass(Offset{})
	dst := s.accum.Acquire()
	s.backend.Blit(dst, smp)
	return dst
}

func (s *Sequencer) refine(off Offset) Surface {
	smp := s.samplePass(off)
	prev := s.current
	dst := s.accum.Acquire()
	if dst == prev {
		panic("render: upsample target is the previous accumulation surface")
	}
	s.backend.Upsample(dst, UpsampleParams{
		Sample:     smp,
		Previous:   prev,
		Repeat:     s.plan.Repeat,
		Offset:     off,
		ScreenSize: s.full,
	})
	return dst
}
