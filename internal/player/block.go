package player

// DecodedBlock is one unit of decoded, possibly-resampled audio: a list of
// per-channel f32 sequences, forward-linked into FileStream's buffered
// block list.
type DecodedBlock struct {
	Samples       [][]float32 // per-channel sequence, len == NumFrames
	NumFrames     int         // usable output frames in this block
	Playhead      int         // next output frame to consume, 0 <= Playhead <= NumFrames
	IsEOF         bool        // true iff this is the last block of the stream
	ResampleRatio float64     // target_sr / source_sr, 1.0 when no resampling
	StreamID      uint64      // epoch assigned by FileStream on seek
	Next          *DecodedBlock
	Len           int // length of the sub-list rooted at this block
}

// disposeChain walks a possibly-long DecodedBlock chain iteratively,
// clearing Next pointers as it goes, so that releasing a long chain never
// recurses (the audio thread invariant from which this is named: a
// recursive destructor on a long chain would overflow its stack).
func disposeChain(head *DecodedBlock) {
	for head != nil {
		next := head.Next
		head.Next = nil
		head.Samples = nil
		head = next
	}
}

// appendBlock appends b to the tail of the chain rooted at head, updating
// Len (the count of nodes from each node to the tail, inclusive) along
// every node from head to the new tail, and returns the (possibly
// unchanged) head.
func appendBlock(head *DecodedBlock, b *DecodedBlock) *DecodedBlock {
	b.Len = 1
	if head == nil {
		return b
	}
	last := head
	for last.Next != nil {
		last = last.Next
	}
	last.Next = b
	for n := head; n != b; n = n.Next {
		n.Len++
	}
	return head
}
