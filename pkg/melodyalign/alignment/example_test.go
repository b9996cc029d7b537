package alignment_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

// ExampleAlign scores a take whose second note is a whole tone flat.
func ExampleAlign() {
	ref := contour(segment{440, 1}, segment{493.88, 1}, segment{440, 1})
	user := contour(segment{440, 1}, segment{440, 1}, segment{440, 1})
	notes := notesOf(440, 493.88, 440)

	res, err := alignment.Align(context.Background(), ref, user, notes, alignment.DefaultConfig())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for i, m := range res.NoteMatchings {
		fmt.Printf("note %d: %s sung as %s, correct=%v\n",
			i+1, alignment.NoteName(m.ReferenceNoteFreq).Name, alignment.NoteName(m.UserNoteFreq).Name, m.IsCorrect)
	}
	fmt.Printf("quality=%.2f\n", res.AlignmentQuality)
	// Output:
	// note 1: A sung as A, correct=true
	// note 2: B sung as A, correct=false
	// note 3: A sung as A, correct=true
	// quality=0.67
}

// ExampleAlign_notEnoughSignal shows the error a silent take produces.
func ExampleAlign_notEnoughSignal() {
	ref := contour(segment{440, 1})
	silent := contour(segment{0, 1})

	_, err := alignment.Align(context.Background(), ref, silent, notesOf(440), alignment.DefaultConfig())
	fmt.Println(errors.Is(err, alignment.ErrInsufficientData))
	// Output:
	// true
}
