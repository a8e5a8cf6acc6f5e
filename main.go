package main

import (
	"flag"
	"log"

	"github.com/deltaone/deltaone-backend/cmd"
)

func main() {
	shouldEvaluate := flag.Bool("evaluate", false, "Evaluate a candidate run against a baseline")
	shouldMint := flag.Bool("mint", false, "Evaluate and, when accepted, mint the reward")
	runId := flag.String("run", "", "Candidate run id")
	baselineRunId := flag.String("baseline", "", "Baseline run id")
	tokenId := flag.String("token", "", "Token id to mint against")
	nonce := flag.String("nonce", "", "Optional one-time nonce binding this submission")
	dryRun := flag.Bool("dry-run", false, "Do not call the mint endpoint")
	flag.Parse()

	var err error
	switch {
	case *shouldEvaluate:
		err = cmd.RunEvaluate(*runId, *baselineRunId, *nonce)
	case *shouldMint:
		err = cmd.RunMint(*runId, *baselineRunId, *tokenId, *nonce, *dryRun)
	default:
		flag.Usage()
	}
	if err != nil {
		log.Fatal(err)
	}
}
