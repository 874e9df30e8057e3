package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

var rekClient *rekognition.Client

func rekognitionClient() (*rekognition.Client, error) {
	if rekClient != nil {
		return rekClient, nil
	}
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	rekClient = rekognition.NewFromConfig(cfg)
	return rekClient, nil
}

// DetectImageLabels returns the top labels for a data-URI encoded image.
// Used to enrich meal photo analysis with what the image actually shows.
func DetectImageLabels(dataURI string) ([]string, error) {
	if !strings.HasPrefix(dataURI, "data:image") {
		return nil, errors.New("invalid data URI")
	}
	idx := strings.Index(dataURI, ",")
	if idx < 0 {
		return nil, errors.New("invalid data URI")
	}
	data, err := base64.StdEncoding.DecodeString(dataURI[idx+1:])
	if err != nil {
		return nil, err
	}

	client, err := rekognitionClient()
	if err != nil {
		return nil, err
	}

	out, err := client.DetectLabels(context.TODO(), &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, l := range out.Labels {
		labels = append(labels, *l.Name)
	}
	return labels, nil
}
