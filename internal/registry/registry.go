// Package registry maps a (task, tier) pair to the concrete model asset
// provisioned for it. The table is fixed at build time; tiers trade accuracy
// for footprint.
package registry

import "errors"

type Task string

const (
	TaskEmbedding       Task = "embedding"
	TaskOCR             Task = "ocr"
	TaskObjectDetection Task = "object_detection"
)

type Tier string

const (
	TierLightweight Tier = "lightweight"
	TierMedium      Tier = "medium"
	TierHeavy       Tier = "heavy"
)

var ErrUnknownModel = errors.New("unknown task/tier combination")

var models = map[Tier]map[Task]string{
	TierLightweight: {
		TaskEmbedding:       "MobileCLIP",
		TaskOCR:             "Tesseract",
		TaskObjectDetection: "YOLOv8n",
	},
	TierMedium: {
		TaskEmbedding:       "CLIP-ViT-B-32",
		TaskOCR:             "PaddleOCR",
		TaskObjectDetection: "YOLOv8s",
	},
	TierHeavy: {
		TaskEmbedding:       "CLIP-ViT-L-14",
		TaskOCR:             "PaddleOCR-high-accuracy",
		TaskObjectDetection: "YOLOv9",
	},
}

// Resolve returns the model identifier provisioned for the task at the tier.
func Resolve(task Task, tier Tier) (string, error) {
	byTask, ok := models[tier]
	if !ok {
		return "", ErrUnknownModel
	}
	modelID, ok := byTask[task]
	if !ok {
		return "", ErrUnknownModel
	}
	return modelID, nil
}

// ResolveTier normalizes a tier string, defaulting to medium for anything
// unrecognized. Mirrors how streaming clients pass the tier as a bare header.
func ResolveTier(value string) Tier {
	switch value {
	case string(TierLightweight):
		return TierLightweight
	case string(TierHeavy):
		return TierHeavy
	default:
		return TierMedium
	}
}
