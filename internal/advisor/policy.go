package advisor

import (
	"churnsight/domain/churn"
)

// PolicyKey identifies one advisory: a feature plus the direction the
// counterfactual moved it.
type PolicyKey struct {
	Feature   string
	Direction string
}

// PolicyEntry is the advisory text and urgency for one lever movement.
type PolicyEntry struct {
	Advice   string
	Priority churn.Priority
}

// PolicyTable maps lever movements to retention advice. Loaded once at
// process start and read-only afterwards. A lever with no entry yields no
// recommendation; that is policy, not an error.
type PolicyTable map[PolicyKey]PolicyEntry

// DefaultPolicyTable is the production retention playbook for the telco
// schema's actionable levers.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		{"Monthly_Charge", "decrease"}:              {"Offer a tailored discount to bring the monthly charge down.", churn.PriorityHigh},
		{"Monthly_Charge", "increase"}:              {"Review plan fit before any price increase; pair it with added value.", churn.PriorityMedium},
		{"Contract_One_Year", "increase"}:           {"Pitch a one-year contract with a signing incentive.", churn.PriorityHigh},
		{"Contract_Two_Year", "increase"}:           {"Pitch a two-year contract with a loyalty discount.", churn.PriorityHigh},
		{"Online_Security", "increase"}:             {"Add the online security package, free for the first three months.", churn.PriorityMedium},
		{"Online_Backup", "increase"}:               {"Bundle online backup into the current plan.", churn.PriorityMedium},
		{"Device_Protection_Plan", "increase"}:      {"Offer the device protection plan at a bundled rate.", churn.PriorityMedium},
		{"Premium_Tech_Support", "increase"}:        {"Enroll the customer in premium tech support with a trial period.", churn.PriorityMedium},
		{"Streaming_TV", "increase"}:                {"Add streaming TV to increase plan stickiness.", churn.PriorityMedium},
		{"Streaming_Movies", "increase"}:            {"Add the movie streaming package to the bundle.", churn.PriorityMedium},
		{"Streaming_Music", "increase"}:             {"Add the music streaming package to the bundle.", churn.PriorityMedium},
		{"Unlimited_Data", "increase"}:              {"Upgrade to unlimited data to remove overage friction.", churn.PriorityMedium},
		{"Internet_Type_Fiber_Optic", "increase"}:   {"Offer a fiber upgrade where available.", churn.PriorityMedium},
		{"Internet_Type_Fiber_Optic", "decrease"}:   {"Fiber pricing may be driving dissatisfaction; review the tier.", churn.PriorityMedium},
		{"Payment_Method_Credit_Card", "increase"}:  {"Move the customer to automatic credit card payment.", churn.PriorityMedium},
		{"Payment_Method_Mailed_Check", "decrease"}: {"Migrate away from mailed checks to reduce billing friction.", churn.PriorityMedium},
		{"Offer_Offer_A", "increase"}:               {"Enroll the customer in promotional offer A.", churn.PriorityMedium},
		{"Offer_Offer_B", "increase"}:               {"Enroll the customer in promotional offer B.", churn.PriorityMedium},
		{"Offer_Offer_C", "increase"}:               {"Enroll the customer in promotional offer C.", churn.PriorityMedium},
		{"Offer_Offer_D", "increase"}:               {"Enroll the customer in promotional offer D.", churn.PriorityMedium},
		{"Offer_Offer_E", "increase"}:               {"Enroll the customer in promotional offer E.", churn.PriorityMedium},
	}
}
