// Command sentiment runs the Transformer encoder classifier over a small
// built-in set of movie reviews: it builds a vocabulary, pads the batch,
// scores every review in evaluation mode and reports per-review
// predictions plus aggregate metrics.
package main

import (
	"flag"
	"fmt"
	"log"

	"nnkit/pkg/model"
	"nnkit/pkg/model/attention"
	"nnkit/pkg/tensor"
	"nnkit/pkg/vocab"
)

type review struct {
	text  string
	label int
}

var reviews = []review{
	{"this movie was absolutely wonderful, a joy from start to finish", 1},
	{"a complete waste of time, the plot made no sense at all", 0},
	{"brilliant acting and a beautiful story, I loved every minute", 1},
	{"terrible pacing and wooden dialogue, I walked out halfway", 0},
	{"one of the best films I have seen this year, highly recommended", 1},
	{"boring, predictable and far too long, skip this one", 0},
	{"a moving and unforgettable experience with a stunning soundtrack", 1},
	{"the worst sequel ever made, a dull and lazy cash grab", 0},
}

func main() {
	dModel := flag.Int("d-model", 64, "model embedding dimension")
	dFF := flag.Int("d-ff", 128, "feed-forward hidden dimension")
	numHeads := flag.Int("heads", 4, "number of attention heads")
	numLayers := flag.Int("layers", 2, "number of encoder blocks")
	dropout := flag.Float64("dropout", 0.1, "dropout probability")
	seed := flag.Uint64("seed", 42, "random seed")
	checkpoint := flag.String("checkpoint", "", "load model weights from this checkpoint if set")
	saveTo := flag.String("save", "", "write model weights to this checkpoint after scoring")
	vocabPath := flag.String("vocab", "", "write the vocabulary to this file if set")
	flag.Parse()

	model.SetInitSeed(*seed)
	attention.SetInitSeed(*seed)
	tensor.SetDropoutSeed(*seed)

	corpus := make([]string, len(reviews))
	labels := make([]int, len(reviews))
	for i, r := range reviews {
		corpus[i] = r.text
		labels[i] = r.label
	}

	voc := vocab.Build(corpus, 1)
	fmt.Println("=== Transformer Sentiment Classifier ===")
	fmt.Printf("Vocabulary: %d words, reviews: %d\n", voc.Size(), len(reviews))

	config := model.Config{
		VocabSize: voc.Size(),
		DModel:    *dModel,
		DFF:       *dFF,
		NumHeads:  *numHeads,
		NumLayers: *numLayers,
		Dropout:   *dropout,
		PadIndex:  vocab.PadIndex,
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Printf("Model: d_model=%d d_ff=%d heads=%d layers=%d dropout=%.2f\n\n",
		config.DModel, config.DFF, config.NumHeads, config.NumLayers, config.Dropout)

	var classifier *model.SentimentClassifier
	if *checkpoint != "" {
		var err error
		classifier, err = model.LoadCheckpoint(*checkpoint)
		if err != nil {
			log.Fatalf("Failed to load checkpoint: %v", err)
		}
		fmt.Printf("Loaded weights from %s\n\n", *checkpoint)
	} else {
		classifier = model.NewSentimentClassifier(config)
	}
	classifier.SetTraining(false)

	seqs := make([][]int, len(reviews))
	for i, r := range reviews {
		seqs[i] = voc.Encode(r.text)
	}
	tokens := vocab.PadBatch(seqs)
	lengths := vocab.Lengths(tokens, vocab.PadIndex)

	logits, err := classifier.Forward(tokens, lengths)
	if err != nil {
		log.Fatalf("Forward pass failed: %v", err)
	}

	preds := make([]int, len(reviews))
	for i := range reviews {
		if logits.Data[i] >= 0 {
			preds[i] = 1
		}
		fmt.Printf("logit %+.4f  pred %d  label %d  len %2d  %q\n",
			logits.Data[i], preds[i], labels[i], lengths[i], reviews[i].text)
	}

	m := model.BinaryMetrics(preds, labels)
	fmt.Printf("\nAccuracy:  %.4f\n", m.Accuracy)
	fmt.Printf("Recall:    %.4f\n", m.Recall)
	fmt.Printf("Precision: %.4f\n", m.Precision)
	fmt.Printf("F1:        %.4f\n", m.F1)

	if *saveTo != "" {
		if err := model.SaveCheckpoint(*saveTo, classifier); err != nil {
			log.Fatalf("Failed to save checkpoint: %v", err)
		}
		fmt.Printf("\nSaved weights to %s\n", *saveTo)
	}
	if *vocabPath != "" {
		if err := voc.Save(*vocabPath); err != nil {
			log.Fatalf("Failed to save vocabulary: %v", err)
		}
		fmt.Printf("Saved vocabulary to %s\n", *vocabPath)
	}
}
