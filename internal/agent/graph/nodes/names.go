package nodes

// Node names. They double as the prefix of every error a node records.
const (
	NodeGetChatHistory      = "get_chat_history"
	NodeClassifyAndRoute    = "classify_and_route"
	NodeAgingBiomarker      = "aging_biomarker_node"
	NodeClinicalTrial       = "longevity_clinical_trial_node"
	NodeGeneralKnowledge    = "general_knowledge_node"
	NodeRejectionHandler    = "rejection_handler"
	NodeSaveChatHistory     = "save_chat_history"
	NodeStreamFinalResponse = "stream_final_response"
)

// RejectionFallback is the answer used when a query is rejected without a
// classifier-supplied message.
const RejectionFallback = "Sorry, I can't help with that request. Ask me about biomarkers, clinical trials, or longevity research."

// StepResearching is the progress step announced by tool and answer nodes.
func StepResearching(capability string) string {
	return "Researching information using " + capability
}
