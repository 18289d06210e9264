package reply

// FallbackCategory names the generic pool used when nothing else matches.
const FallbackCategory = "small_talk"

// Categories returns the reply categories in priority order. Order matters: the
// greeting check runs first and swallows any text containing "hi".
func Categories() []Category {
	return []Category{
		{
			Name:  "greeting",
			Match: containsAny("hi", "hello", "hey"),
			Phrases: []string{
				"Hey! How's your day going so far?",
				"Hi there! What's new with you?",
				"Hello! Nice to hear from you. What have you been up to?",
				"Hey! Good to talk to you. How are things?",
				"Hi! It's good to hear your voice. What's happening?",
			},
		},
		{
			Name:  "how_are_you",
			Match: containsAny("how are you", "how r u", "how're you"),
			Phrases: []string{
				"I'm doing great, thanks for asking! How about you? How's your day been?",
				"Pretty good! Just here chatting with you. What about you, how are you feeling?",
				"I'm good! More importantly, how are you doing today?",
				"Doing well! What about you - anything interesting going on?",
			},
		},
		{
			Name:  "fine",
			Match: shorterThan(5, containsAny("fine", "good", "okay", "ok", "alright")),
			Phrases: []string{
				"That's good to hear! So what have you been up to today?",
				"Nice! Anything exciting happening in your world?",
				"Glad to hear it! What are you doing right now?",
				"Awesome! Tell me, what's been the highlight of your day?",
			},
		},
		{
			Name:  "bad",
			Match: containsAny("bad", "not good", "rough", "terrible", "awful"),
			Phrases: []string{
				"Ah, I'm sorry to hear that. Want to talk about it? Sometimes it helps to vent.",
				"That's tough. Do you want to share what's going on? I'm all ears.",
				"Aw, that's not fun. What's been making it difficult?",
				"I hear you. Some days are just like that, aren't they? What's weighing on you?",
			},
		},
		{
			Name:  "location",
			Match: containsAny("where are you", "where r u"),
			Phrases: []string{
				"I'm right here with you! Where are you at right now?",
				"Just hanging out here! What about you, are you out somewhere or at home?",
				"I'm always here when you need me! Are you somewhere fun?",
			},
		},
		{
			Name:  "time",
			Match: containsAny("what time", "when"),
			Phrases: []string{
				"Time really flies, doesn't it? Are you in a rush or just wondering?",
				"Good question! Do you have somewhere to be soon?",
				"Oh, keeping track of time? Got any plans coming up?",
			},
		},
		{
			Name:  "shopping",
			Match: containsAny("shop", "buy", "store", "mall"),
			Phrases: []string{
				"Ooh shopping! Are you looking for anything specific or just browsing?",
				"Nice! I love a good shopping trip. What are you in the market for?",
				"Fun! Are you shopping for yourself or getting gifts for someone?",
				"Cool! Online or in-person shopping? Both have their perks!",
			},
		},
		{
			Name:  "travel",
			Match: containsAny("travel", "trip", "vacation", "holiday"),
			Phrases: []string{
				"Oh wow, travel! Where are you thinking of going?",
				"That sounds exciting! Is this for fun or work?",
				"Nice! I love hearing about people's trips. Have you been there before?",
				"Ooh a trip! How long are you planning to go for?",
			},
		},
		{
			Name:  "exercise",
			Match: containsAny("gym", "exercise", "workout", "run", "fitness"),
			Phrases: []string{
				"That's awesome! Staying active is so important. What's your routine like?",
				"Nice! Are you training for something specific or just staying in shape?",
				"That's great! How often do you usually work out?",
				"Good for you! Do you prefer morning or evening workouts?",
			},
		},
		{
			Name:  "hobbies",
			Match: containsAny("hobby", "interest", "like to"),
			Phrases: []string{
				"Oh cool! What kind of hobbies are you into?",
				"That's interesting! How long have you been doing that?",
				"Nice! It's so important to have things you're passionate about.",
				"That sounds fun! Do you do that often or just when you have time?",
			},
		},
		{
			Name:  "pets",
			Match: containsAny("dog", "cat", "pet", "animal"),
			Phrases: []string{
				"Aww, pets are the best! What kind do you have?",
				"Oh I love animals! Tell me about your pet!",
				"That's so sweet! How long have you had them?",
				"Pets really are family, aren't they? What's their personality like?",
			},
		},
		{
			Name:  "books",
			Match: containsAny("book", "read", "novel"),
			Phrases: []string{
				"Oh nice! What genre do you usually read?",
				"I love a good book! What are you reading right now?",
				"That's cool! Do you prefer physical books or e-books?",
				"Reading is such a great hobby. Who's your favorite author?",
			},
		},
		{
			Name:  "gaming",
			Match: containsAny("game", "gaming", "play", "video"),
			Phrases: []string{
				"Gaming! What do you like to play?",
				"That's fun! Console, PC, or mobile?",
				"Nice! Are you more into single-player or multiplayer games?",
				"Cool! Have you been playing anything good lately?",
			},
		},
		{
			Name:  "drinks",
			Match: containsAny("coffee", "tea", "drink", "cafe"),
			Phrases: []string{
				"Ooh coffee! Are you a coffee or tea person?",
				"Nice! What's your go-to drink order?",
				"That sounds good! Do you have a favorite café spot?",
				"I get that! Sometimes you just need a good drink to start the day.",
			},
		},
		{
			Name:  "stress",
			Match: containsAny("stress", "anxiety", "anxious", "worry", "nervous"),
			Phrases: []string{
				"I understand, stress can be really overwhelming. What's been causing it?",
				"That's really tough to deal with. Have you tried any techniques that help you relax?",
				"I hear you. Anxiety is no joke. Do you want to talk through what's on your mind?",
				"That sounds really challenging. Is there anything specific that's making you feel this way?",
			},
		},
		{
			Name:  "bored",
			Match: containsAny("bored", "boring", "nothing to do"),
			Phrases: []string{
				"Boredom is the worst! Have you thought about trying something new?",
				"I feel that. What do you usually do for fun when you're looking for something to do?",
				"Yeah, those days happen. Want to brainstorm some ideas together?",
				"I get it! Maybe it's a sign to pick up a new hobby or revisit an old one?",
			},
		},
		{
			Name:  "thanks",
			Match: containsAny("thank", "thanks"),
			Phrases: []string{
				"Of course! Anytime. What else is going on?",
				"You're so welcome! Happy to help.",
				"No problem at all! Is there anything else you want to chat about?",
				"My pleasure! That's what I'm here for.",
			},
		},
		{
			Name:  "weather",
			Match: containsAny("weather", "cold", "hot", "rain"),
			Phrases: []string{
				"I know, right? The weather's been something else lately. Are you staying warm/cool out there?",
				"Yeah, I heard about that! What do you usually like to do when the weather's like this?",
				"Tell me about it! At least it's a good excuse to stay cozy indoors, right?",
				"I've been hearing that from everyone today. Hope you dressed for it!",
			},
		},
		{
			Name:  "work",
			Match: containsAny("work", "job", "school", "class"),
			Phrases: []string{
				"Oh nice! How's that been going for you? Keeping you busy?",
				"That sounds interesting! Do you enjoy it?",
				"I feel you on that. Some days are better than others, right?",
				"That's cool! What's the best part about it?",
			},
		},
		{
			Name:  "food",
			Match: containsAny("food", "eat", "hungry", "dinner", "lunch"),
			Phrases: []string{
				"Ooh, that sounds good! What are you thinking of getting?",
				"Nice! I love food talk. What's your go-to meal?",
				"Food is always a good topic! Have you tried any new places lately?",
				"That makes me hungry just thinking about it. What's your favorite cuisine?",
			},
		},
		{
			Name:  "entertainment",
			Match: containsAny("movie", "show", "watch", "tv", "netflix"),
			Phrases: []string{
				"Oh I've heard about that! Is it any good?",
				"Nice! I love a good show. What genre are you into?",
				"That's cool! Have you been binge-watching or just casual viewing?",
				"Sounds fun! I'm always looking for recommendations. Would you suggest it?",
			},
		},
		{
			Name:  "music",
			Match: containsAny("music", "song", "listen"),
			Phrases: []string{
				"Oh nice! What kind of music are you into these days?",
				"That's awesome! Music really sets the mood, doesn't it?",
				"Cool! Have you discovered any new artists lately?",
				"I love that! What's on your playlist right now?",
			},
		},
		{
			Name:  "plans",
			Match: containsAny("weekend", "plans", "tonight"),
			Phrases: []string{
				"Oh fun! What are you thinking of doing?",
				"That sounds nice! Are you doing anything exciting?",
				"Cool! Do you have anything special planned?",
				"Nice! Sometimes the best plans are no plans, right?",
			},
		},
		{
			Name:  "family",
			Match: containsAny("friend", "family", "mom", "dad", "sister", "brother"),
			Phrases: []string{
				"Aw, that's sweet! How are they doing?",
				"That's nice! Family/friends are so important.",
				"That sounds lovely! Do you see them often?",
				"That's great! It's always good to stay connected with people you care about.",
			},
		},
		{
			Name:  "tired",
			Match: containsAny("tired", "exhaust", "sleep"),
			Phrases: []string{
				"I totally get that. Long day? Sometimes you just need a good rest.",
				"Yeah, I hear you. Have you been getting enough sleep lately?",
				"Ugh, I feel that. Maybe take it easy tonight if you can?",
				"That's rough. Hope you can catch up on some rest soon!",
			},
		},
		{
			Name:  "positive",
			Match: containsAny("happy", "excited", "great", "amazing"),
			Phrases: []string{
				"That's so awesome! I love hearing that. What's got you feeling so good?",
				"Yes! That's the energy we love. Tell me more!",
				"That's wonderful! You deserve all the good vibes.",
				"I'm so glad to hear that! What's making today so special?",
			},
		},
		{
			Name:  "going",
			Match: containsAny("going", "heading", "walk"),
			Phrases: []string{
				"Oh nice! Where are you headed?",
				"Cool! Is it close by or a bit of a journey?",
				"That's good! Getting some fresh air?",
				"Nice! Hope the weather's good for it.",
				"Sounds good! Are you walking or taking transportation?",
			},
		},
		{
			Name:  "yes",
			Match: shorterThan(3, equalsAny("yes", "yeah", "yep", "yup", "mhm")),
			Phrases: []string{
				"Cool, cool! So what's the plan?",
				"Awesome! Tell me more about it.",
				"Nice! What else is happening?",
				"Got it! So what are you thinking?",
				"Right on! What's next?",
			},
		},
		{
			Name:  "no",
			Match: shorterThan(4, equalsAny("no", "nope", "nah", "not really")),
			Phrases: []string{
				"Fair enough! What would you rather talk about?",
				"No worries! Anything else on your mind?",
				"That's okay! So what else is going on?",
				"Totally get it. What's been keeping you busy then?",
			},
		},
		{
			Name:  "about_assistant",
			Match: containsAny("who are you", "what are you", "your name"),
			Phrases: []string{
				"I'm {name}, just here to chat with you! How can I help today?",
				"I'm {name}! Think of me as your friendly conversation partner. What's on your mind?",
				"{name} here! I'm just here to keep you company. What would you like to talk about?",
			},
		},
		{
			Name:  "compliment",
			Match: containsAny("you're nice", "you're great", "you're cool", "you're awesome"),
			Phrases: []string{
				"Aw, that's so sweet of you to say! You're pretty great yourself!",
				"Thanks! That really means a lot. You're easy to talk to too!",
				"You're making me blush! Thanks, you're pretty awesome too!",
				"That's kind of you! I'm just glad we can have a good chat.",
			},
		},
		{
			Name:  "jokes",
			Match: containsAny("joke", "funny", "laugh"),
			Phrases: []string{
				"Haha! I love a good laugh. What's been making you smile lately?",
				"Laughter is the best medicine, right? Got any funny stories to share?",
				"That's awesome! Humor makes everything better. What kind of comedy do you like?",
				"I love that! Do you have a good sense of humor? What makes you laugh?",
			},
		},
	}
}

// Fallback returns the generic small-talk pool.
func Fallback() Category {
	return Category{
		Name:  FallbackCategory,
		Match: func(string) bool { return true },
		Phrases: []string{
			"That's interesting! Tell me more about that.",
			"Oh really? How do you feel about it?",
			"I see what you mean. That makes sense.",
			"Yeah, I get that. What else is going on?",
			"That's cool! What made you think of that?",
			"Totally! I know what you mean.",
			"Interesting perspective! I hadn't thought of it that way.",
			"That's a good point! What do you usually do in that situation?",
			"I hear you. Anything else on your mind?",
			"Right, right. So what's the plan?",
			"That sounds like you! What happened next?",
			"Haha, classic! I can totally picture that.",
			"No way! How did that turn out?",
			"For sure! I think everyone feels that way sometimes.",
			"That's pretty cool actually. Have you always been into that?",
			"I'm following you. Keep going, what else?",
			"Mhm, I get what you're saying. What do you think about it?",
			"That sounds about right! How are you handling it?",
			"I can relate to that! Has this happened before?",
			"True, true! What's your take on the whole thing?",
			"Oh wow! That must have been something. How did you react?",
			"I'd probably feel the same way. What are you gonna do?",
			"That's wild! I bet that was an experience.",
			"Understandable! What would you do differently?",
			"Real talk! How long has this been going on?",
		},
	}
}
