// Package onnx embeds texts with a local BERT-style ONNX model. The
// pipeline is tokenize, run inference, mean-pool over real tokens, then
// L2-normalize so cosine math downstream can assume unit vectors.
package onnx

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Embedder runs local embedding inference over an ONNX session.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	tok        *tokenizer
	inputNames []string
	hiddenDim  int64
}

// New loads the model and vocabulary and creates an inference session. The
// ONNX Runtime shared library is expected next to the model file.
func New(modelPath, vocabPath string) (*Embedder, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initRuntime(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	inputNames, err := requiredInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("onnx: expected [batch, seq, dim] output tensor, got %v", dims)
	}

	tok, err := newTokenizer(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &Embedder{
		session:    session,
		tok:        tok,
		inputNames: inputNames,
		hiddenDim:  dims[2],
	}, nil
}

func requiredInputs(inputs []ort.InputOutputInfo) ([]string, error) {
	present := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		present[in.Name] = true
	}
	required := []string{"input_ids", "attention_mask", "token_type_ids"}
	for _, name := range required {
		if !present[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	return required, nil
}

// EmbedBatch embeds all texts in one inference call and returns unit-length
// vectors in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := e.tok.tokenizeBatch(texts)
	hidden, err := e.infer(batch)
	if err != nil {
		return nil, err
	}

	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, e.hiddenDim)

	dim := e.hiddenDim
	vectors := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		v := make([]float32, dim)
		copy(v, pooled[i*dim:(i+1)*dim])
		l2Normalize(v)
		vectors[i] = v
	}
	return vectors, nil
}

// infer runs one forward pass. The returned slice is the flat hidden-state
// tensor of shape [batch * seq * hiddenDim].
func (e *Embedder) infer(batch tokenized) ([]float32, error) {
	shape := ort.NewShape(batch.batchSize, batch.seqLen)

	tIDs, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: create input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: create attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	tTypes, err := ort.NewTensor(shape, batch.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: create token_type_ids tensor: %w", err)
	}
	defer tTypes.Destroy()

	outShape := ort.NewShape(batch.batchSize, batch.seqLen, e.hiddenDim)
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := e.session.Run([]ort.Value{tIDs, tMask, tTypes}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := tOut.GetData()
	hidden := make([]float32, len(src))
	copy(hidden, src)
	return hidden, nil
}

// Close releases the ONNX session resources.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}
