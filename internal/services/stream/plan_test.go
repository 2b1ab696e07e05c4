package stream

import (
	"bytes"
	"testing"
)

func TestChunkSizeFor(t *testing.T) {
	tests := []struct {
		name     string
		fileSize int64
		want     int64
	}{
		{"large file clamps to 1MiB", 100 << 20, 1 << 20},
		{"tiny file clamps to 1KiB", 500, 1024},
		{"mid file takes a tenth", 5 << 20, (5 << 20) / 10},
		{"exactly 10MiB", 10 << 20, 1 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chunkSizeFor(tt.fileSize); got != tt.want {
				t.Errorf("chunkSizeFor(%d) = %d, want %d", tt.fileSize, got, tt.want)
			}
		})
	}
}

func TestBuildPlanAlignment(t *testing.T) {
	const fileSize = 5 << 20 // chunk = 524288

	plan := BuildPlan(fileSize, 1000, 2000000)

	if plan.ChunkSize != 524288 {
		t.Fatalf("ChunkSize = %d", plan.ChunkSize)
	}
	if plan.Offset != 0 {
		t.Errorf("Offset = %d, want 0", plan.Offset)
	}
	if plan.FirstCut != 1000 {
		t.Errorf("FirstCut = %d, want 1000", plan.FirstCut)
	}
	if want := int64(2000000%524288 + 1); plan.LastCut != want {
		t.Errorf("LastCut = %d, want %d", plan.LastCut, want)
	}
	if plan.PartCount != 4 {
		t.Errorf("PartCount = %d, want 4", plan.PartCount)
	}
	if plan.Length != 1999001 {
		t.Errorf("Length = %d, want 1999001", plan.Length)
	}
}

func TestBuildPlanMidFileStart(t *testing.T) {
	const fileSize = 5 << 20
	plan := BuildPlan(fileSize, 600000, fileSize-1)

	if plan.Offset != 524288 {
		t.Errorf("Offset = %d, want 524288", plan.Offset)
	}
	if plan.FirstCut != 600000-524288 {
		t.Errorf("FirstCut = %d", plan.FirstCut)
	}
}

// assembleWindow simulates the chunk loop over an in-memory file and
// returns the trimmed concatenation.
func assembleWindow(t *testing.T, data []byte, plan ChunkPlan) []byte {
	t.Helper()
	var out bytes.Buffer
	offset := plan.Offset
	for part := int64(1); part <= plan.PartCount; part++ {
		end := offset + plan.ChunkSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		if offset >= end {
			break
		}
		out.Write(trimChunk(data[offset:end], part, plan))
		offset += plan.ChunkSize
	}
	return out.Bytes()
}

func makeFile(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 31)
	}
	return data
}

func TestPlanWindowExactness(t *testing.T) {
	data := makeFile(5 << 20)
	size := int64(len(data))

	tests := []struct {
		name string
		from int64
		to   int64
	}{
		{"full first mebibyte", 0, 1<<20 - 1},
		{"single byte", 12345, 12345},
		{"cross chunk boundary", 524287, 524289},
		{"tail of file", size - 1000, size - 1},
		{"whole file", 0, size - 1},
		{"inside one chunk", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(size, tt.from, tt.to)
			got := assembleWindow(t, data, plan)
			want := data[tt.from : tt.to+1]
			if int64(len(got)) != plan.Length {
				t.Fatalf("assembled %d bytes, plan.Length %d", len(got), plan.Length)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("window [%d,%d] content mismatch (got %d bytes, want %d)", tt.from, tt.to, len(got), len(want))
			}
		})
	}
}

func TestPlanWindowExactnessSmallFile(t *testing.T) {
	// Small files clamp to the 1 KiB chunk floor.
	data := makeFile(3000)
	plan := BuildPlan(3000, 100, 2500)
	got := assembleWindow(t, data, plan)
	if !bytes.Equal(got, data[100:2501]) {
		t.Errorf("small file window mismatch: got %d bytes, want %d", len(got), 2401)
	}
}

func TestTrimChunkSinglePart(t *testing.T) {
	plan := ChunkPlan{PartCount: 1, FirstCut: 2, LastCut: 5}
	got := trimChunk([]byte("abcdefgh"), 1, plan)
	if string(got) != "cde" {
		t.Errorf("got %q, want %q", got, "cde")
	}
}

func TestTrimChunkClampsShortChunk(t *testing.T) {
	plan := ChunkPlan{PartCount: 2, FirstCut: 0, LastCut: 100}
	got := trimChunk([]byte("abc"), 2, plan)
	if string(got) != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}
