/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

type SubmitSns struct {
	PostUrl string `json:"post_url"`
	AdCode  string `json:"ad_code"`
}

type ReviewDecision struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type ResetStep struct {
	Target string `json:"target"`
	Notes  string `json:"notes"`
}
