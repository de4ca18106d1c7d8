package compress

import (
	"fmt"
	"testing"
)

func BenchmarkAllCodecs_Compress(b *testing.B) {
	for codecName, codec := range getAllCodecs() {
		for _, size := range []int{4 * 1024, 64 * 1024, 1024 * 1024} {
			b.Run(fmt.Sprintf("%s/%dKB", codecName, size/1024), func(b *testing.B) {
				data := snapshotLikePayload(size)

				b.ReportAllocs()
				b.SetBytes(int64(len(data)))

				for b.Loop() {
					if _, err := codec.Compress(data); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	for codecName, codec := range getAllCodecs() {
		for _, size := range []int{4 * 1024, 64 * 1024, 1024 * 1024} {
			b.Run(fmt.Sprintf("%s/%dKB", codecName, size/1024), func(b *testing.B) {
				data := snapshotLikePayload(size)
				compressed, err := codec.Compress(data)
				if err != nil {
					b.Fatal(err)
				}

				b.ReportAllocs()
				b.SetBytes(int64(len(data)))

				for b.Loop() {
					if _, err := Decompress(codec, compressed, len(data)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkAllCodecs_Parallel(b *testing.B) {
	data := snapshotLikePayload(64 * 1024)

	for codecName, codec := range getAllCodecs() {
		b.Run(codecName, func(b *testing.B) {
			compressed, err := codec.Compress(data)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := Decompress(codec, compressed, len(data)); err != nil {
						b.Error(err)
						return
					}
				}
			})
		})
	}
}
