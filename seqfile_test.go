package kmerhash

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func collectRecords(t *testing.T, data string) []Record {
	t.Helper()
	return slices.Collect(ReadRecords([]byte(data)))
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Record
	}{
		{
			name: "MultiRecord",
			data: ">chr1 first\nACGT\nAC\n>chr2\nGGGG\n",
			want: []Record{{"chr1 first", []byte("ACGTAC")}, {"chr2", []byte("GGGG")}},
		},
		{
			name: "CRLFAndBlankLines",
			data: ">a\r\nAC\r\n\r\nGT\r\n\n>b\r\nTT",
			want: []Record{{"a", []byte("ACGT")}, {"b", []byte("TT")}},
		},
		{
			name: "Headerless",
			data: "ACGT\nTTTT\n",
			want: []Record{{"", []byte("ACGTTTTT")}},
		},
		{
			name: "EmptyRecord",
			data: ">empty\n>full\nA\n",
			want: []Record{{"empty", nil}, {"full", []byte("A")}},
		},
		{
			name: "HeaderWhitespace",
			data: ">  padded name \t\nA",
			want: []Record{{"padded name", []byte("A")}},
		},
		{name: "Empty", data: "", want: nil},
		{name: "OnlyNewlines", data: "\n\r\n\n", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectRecords(t, tt.data)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name || string(got[i].Seq) != string(tt.want[i].Seq) {
					t.Errorf("record %d = {%q %q}, want {%q %q}",
						i, got[i].Name, got[i].Seq, tt.want[i].Name, tt.want[i].Seq)
				}
			}
		})
	}
}

func TestReadRecordsEarlyBreak(t *testing.T) {
	var names []string
	for rec := range ReadRecords([]byte(">a\nA\n>b\nC\n>c\nG\n")) {
		names = append(names, rec.Name)
		if rec.Name == "b" {
			break
		}
	}
	if !slices.Equal(names, []string{"a", "b"}) {
		t.Fatalf("names = %v, want [a b]", names)
	}
}

func TestReadRecordsCopiesSequence(t *testing.T) {
	data := []byte("ACGT\n")
	recs := slices.Collect(ReadRecords(data))
	data[0] = 'T'
	if string(recs[0].Seq) != "ACGT" {
		t.Fatalf("record aliases input: %q", recs[0].Seq)
	}
}

func TestSequenceFile(t *testing.T) {
	rng := newTestRNG(t)
	seq1 := randomDNA(rng, 1000)
	seq2 := randomDNA(rng, 333)

	var content []byte
	content = append(content, ">one\n"...)
	for i := 0; i < len(seq1); i += 60 {
		content = append(content, seq1[i:min(i+60, len(seq1))]...)
		content = append(content, '\n')
	}
	content = append(content, ">two\n"...)
	content = append(content, seq2...)

	path := filepath.Join(t.TempDir(), "in.fa")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	sf, err := OpenSequenceFile(path)
	if err != nil {
		t.Fatalf("OpenSequenceFile: %v", err)
	}
	if sf.Size() != len(content) {
		t.Fatalf("Size() = %d, want %d", sf.Size(), len(content))
	}
	recs := slices.Collect(sf.Records())
	if err := sf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Name != "one" || !slices.Equal(recs[0].Seq, seq1) {
		t.Error("record one differs")
	}
	if recs[1].Name != "two" || !slices.Equal(recs[1].Seq, seq2) {
		t.Error("record two differs")
	}
}

func TestSequenceFileRecordsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.fa")
	if err := os.WriteFile(path, []byte(">a\nACGT\n>b\nTTTT\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sf, err := OpenSequenceFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records := sf.Records() // obtained before Close, ranged after
	if err := sf.Close(); err != nil {
		t.Fatal(err)
	}

	if n := len(slices.Collect(sf.Records())); n != 0 {
		t.Fatalf("got %d records after Close, want 0", n)
	}
	if n := len(slices.Collect(records)); n != 0 {
		t.Fatalf("got %d records from earlier iterator after Close, want 0", n)
	}
	if sf.Size() != 0 {
		t.Fatalf("Size() = %d after Close, want 0", sf.Size())
	}
}

func TestSequenceFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fa")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	sf, err := OpenSequenceFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sf.Close()
	if n := len(slices.Collect(sf.Records())); n != 0 {
		t.Fatalf("got %d records from empty file", n)
	}
}

func TestSequenceFileMissing(t *testing.T) {
	if _, err := OpenSequenceFile(filepath.Join(t.TempDir(), "missing.fa")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
