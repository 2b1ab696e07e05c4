package stream

const maxChunkSize = 1 << 20 // 1 MiB upstream read ceiling
const minChunkSize = 1024

// ChunkPlan is the aligned read window serving one HTTP range request.
// Offset is chunk-aligned at or below the requested start; FirstCut and
// LastCut trim the first and last chunk so the concatenated output is
// byte-exact.
type ChunkPlan struct {
	Offset    int64
	ChunkSize int64
	FirstCut  int64
	LastCut   int64
	PartCount int64
	Length    int64
}

// chunkSizeFor picks the upstream read size for a file: a tenth of the
// file, clamped to [1 KiB, 1 MiB].
func chunkSizeFor(fileSize int64) int64 {
	size := fileSize / 10
	if size > maxChunkSize {
		return maxChunkSize
	}
	if size < minChunkSize {
		return minChunkSize
	}
	return size
}

// BuildPlan computes the chunk plan for the inclusive byte window
// [from, until] of a file. Callers must validate the window against the
// file size first.
func BuildPlan(fileSize, from, until int64) ChunkPlan {
	chunk := chunkSizeFor(fileSize)
	offset := from - (from % chunk)
	return ChunkPlan{
		Offset:    offset,
		ChunkSize: chunk,
		FirstCut:  from - offset,
		LastCut:   (until % chunk) + 1,
		PartCount: ceilDiv(until, chunk) - offset/chunk,
		Length:    until - from + 1,
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// trimChunk applies the plan's cut rules to the chunk at the given
// 1-based part index. Cuts are clamped to the actual chunk length so a
// short final read never slices out of bounds.
func trimChunk(chunk []byte, part int64, plan ChunkPlan) []byte {
	first := plan.FirstCut
	if first > int64(len(chunk)) {
		first = int64(len(chunk))
	}
	last := plan.LastCut
	if last > int64(len(chunk)) {
		last = int64(len(chunk))
	}

	switch {
	case plan.PartCount == 1:
		if first > last {
			return nil
		}
		return chunk[first:last]
	case part == 1:
		return chunk[first:]
	case part == plan.PartCount:
		return chunk[:last]
	default:
		return chunk
	}
}
